package whitelist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/svanoort/script-security-plugin/internal/signature"
)

// ParseEntries reads a catalog in the canonical line format: one signature
// per line, blank lines and '#' comments skipped. Malformed lines are
// collected with their line numbers and reported together; well-formed
// lines still parse, so callers can decide whether to use a partial
// catalog or reject the file.
func ParseEntries(r io.Reader) ([]*signature.Signature, error) {
	var entries []*signature.Signature
	var errs []error

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s, err := signature.Parse(line)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", lineNo, err))
			continue
		}
		entries = append(entries, s)
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}
	return entries, errors.Join(errs...)
}

// ParseReader parses a catalog into a ready-to-use enumerating whitelist.
func ParseReader(r io.Reader) (*Enumerating, error) {
	entries, err := ParseEntries(r)
	if err != nil {
		return nil, err
	}
	return NewEnumerating(entries), nil
}

// ParseText parses an in-memory catalog.
func ParseText(text string) (*Enumerating, error) {
	return ParseReader(strings.NewReader(text))
}

// ParseFile parses a catalog file.
func ParseFile(path string) (*Enumerating, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	wl, err := ParseReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wl, nil
}

// FormatCatalog renders entries as catalog text in canonical order with
// exact duplicates removed: the normal form for human review and diffing.
func FormatCatalog(entries []*signature.Signature) string {
	var b strings.Builder
	for _, s := range signature.Dedup(entries) {
		b.WriteString(s.String())
		b.WriteByte('\n')
	}
	return b.String()
}
