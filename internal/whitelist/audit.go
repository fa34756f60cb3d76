package whitelist

import (
	"github.com/svanoort/script-security-plugin/internal/lang"
	"github.com/svanoort/script-security-plugin/internal/signature"
)

// AuditStatus classifies one catalog entry's validation result.
type AuditStatus int

const (
	// StatusExists: the entry denotes a real, reachable member.
	StatusExists AuditStatus = iota
	// StatusMissing: the type resolves but no such member is declared.
	// Expected during audits; reported, not an error.
	StatusMissing
	// StatusBroken: the entry names a type the object model cannot
	// resolve at all. A stale or malformed catalog entry.
	StatusBroken
)

// String returns the status label used in audit reports.
func (s AuditStatus) String() string {
	switch s {
	case StatusExists:
		return "ok"
	case StatusMissing:
		return "missing"
	case StatusBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// AuditResult is the validation outcome for one entry.
type AuditResult struct {
	Signature *signature.Signature
	Status    AuditStatus
	Err       error // set for StatusBroken
}

// Audit validates every entry against the live object model,
// distinguishing members that are not there from entries that are broken.
func Audit(entries []*signature.Signature, r lang.Resolver) []AuditResult {
	results := make([]AuditResult, len(entries))
	for i, s := range entries {
		exists, err := s.Exists(r)
		switch {
		case err != nil:
			results[i] = AuditResult{Signature: s, Status: StatusBroken, Err: err}
		case exists:
			results[i] = AuditResult{Signature: s, Status: StatusExists}
		default:
			results[i] = AuditResult{Signature: s, Status: StatusMissing}
		}
	}
	return results
}

// AuditSummary aggregates audit results by status.
type AuditSummary struct {
	Exists  int
	Missing int
	Broken  int
}

// Summarize tallies audit results.
func Summarize(results []AuditResult) AuditSummary {
	var sum AuditSummary
	for _, r := range results {
		switch r.Status {
		case StatusExists:
			sum.Exists++
		case StatusMissing:
			sum.Missing++
		case StatusBroken:
			sum.Broken++
		}
	}
	return sum
}
