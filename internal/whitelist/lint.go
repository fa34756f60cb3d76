package whitelist

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/svanoort/script-security-plugin/internal/signature"
)

// Issue is one lint finding in a catalog file.
type Issue struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s", i.Line, i.Message)
}

// Lint checks catalog text for entries that parse but will never behave
// as the author intended:
//   - exact duplicates of an earlier entry (dead weight, hides intent)
//   - entries out of canonical order (defeats review diffing)
//   - tokens that are not Unicode NFC (visually identical to an entry
//     that would match, but textually different, so it never matches)
//   - wildcard outside the member-name position (matched literally there,
//     so the entry is dead)
//
// Malformed lines are reported as issues too, one per line.
func Lint(data []byte) []Issue {
	var issues []Issue
	seen := make(map[string]int) // canonical text -> first line
	var prev *signature.Signature
	var prevLine int

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !norm.NFC.IsNormalString(line) {
			issues = append(issues, Issue{lineNo, "contains non-NFC Unicode; this entry can never match a normalized descriptor"})
		}

		s, err := signature.Parse(line)
		if err != nil {
			issues = append(issues, Issue{lineNo, err.Error()})
			continue
		}

		if s.Receiver() == signature.Wildcard {
			issues = append(issues, Issue{lineNo, "wildcard in declaring-type position is matched literally; entry is dead"})
		}
		for _, a := range s.Args() {
			if a == signature.Wildcard {
				issues = append(issues, Issue{lineNo, "wildcard in argument-type position is matched literally; entry is dead"})
				break
			}
		}

		if first, ok := seen[s.String()]; ok {
			issues = append(issues, Issue{lineNo, fmt.Sprintf("duplicate of line %d", first)})
		} else {
			seen[s.String()] = lineNo
		}

		if prev != nil && prev.Compare(s) > 0 {
			issues = append(issues, Issue{lineNo, fmt.Sprintf("out of order after line %d (run 'scriptsec fmt' to normalize)", prevLine)})
		}
		prev, prevLine = s, lineNo
	}
	return issues
}

// LintFile lints a catalog file on disk.
func LintFile(path string) ([]Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Lint(data), nil
}
