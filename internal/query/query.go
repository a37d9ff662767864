// Package query is the derivation layer for complaint views. Given the full
// complaint collection (plus derived upvote counts) and a filter/sort
// specification, it produces an ordered view, dashboard aggregates, and the
// flat export projection.
//
// Everything in this package is a pure function of its inputs: no storage
// access, no clocks read implicitly, no mutation of the input slice. The same
// inputs always yield the same output sequence, including tie-break order,
// which is what keeps list rendering and tests stable.
package query

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/campusvoice/go-complaint-backend/internal/domain"
)

// Sort keys accepted by Filter.Sort. An unknown or empty key falls back to
// SortNewest.
const (
	SortNewest        = "newest"
	SortOldest        = "oldest"
	SortMostUpvoted   = "mostUpvoted"
	SortMostCommented = "mostCommented"
)

// All is the sentinel filter value meaning "no constraint" for the
// enumerated fields. An empty string is treated the same way.
const All = "All"

// Row pairs a complaint with its derived upvote count. The count is computed
// from the upvote table at read time (never stored on the complaint), so a
// Row is a self-contained snapshot for view derivation.
type Row struct {
	Complaint domain.Complaint
	Upvotes   int64
}

// Filter is the view specification: enumerated exact-match constraints, a
// case-insensitive substring search over title and description, and a sort
// key. All active constraints are ANDed.
type Filter struct {
	Category   string
	Department string
	Status     string
	// Level constrains the escalation ordinal; 0 means unconstrained.
	Level  int
	Search string
	Sort   string
}

// Apply returns the ordered view of rows under f. The input slice is not
// modified. Ordering is a total order: every sort key breaks ties by
// insertion sequence, so re-running Apply on the same input always yields
// the same sequence.
func Apply(rows []Row, f Filter) []Row {
	out := make([]Row, 0, len(rows))
	needle := foldString(strings.TrimSpace(f.Search))
	for _, r := range rows {
		if matches(r, f, needle) {
			out = append(out, r)
		}
	}
	sortRows(out, f.Sort)
	return out
}

// matches reports whether a row satisfies every active constraint. The
// search needle is pre-folded by the caller to avoid re-folding per row.
func matches(r Row, f Filter, needle string) bool {
	c := r.Complaint
	if !matchExact(f.Category, c.Category) {
		return false
	}
	if !matchExact(f.Department, c.Department) {
		return false
	}
	if !matchExact(f.Status, c.Status) {
		return false
	}
	if f.Level != 0 && c.Level != f.Level {
		return false
	}
	if needle != "" {
		if !strings.Contains(foldString(c.Title), needle) &&
			!strings.Contains(foldString(c.Description), needle) {
			return false
		}
	}
	return true
}

// matchExact treats "" and the All sentinel as unconstrained.
func matchExact(want, got string) bool {
	return want == "" || want == All || want == got
}

// sortRows orders rows in place by the given key. Creation order is the
// insertion sequence (Seq), not wall-clock time; upvote/comment sorts break
// ties newest-first so the order stays total.
func sortRows(rows []Row, key string) {
	switch key {
	case SortOldest:
		sort.Slice(rows, func(i, j int) bool {
			return rows[i].Complaint.Seq < rows[j].Complaint.Seq
		})
	case SortMostUpvoted:
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].Upvotes != rows[j].Upvotes {
				return rows[i].Upvotes > rows[j].Upvotes
			}
			return rows[i].Complaint.Seq > rows[j].Complaint.Seq
		})
	case SortMostCommented:
		sort.Slice(rows, func(i, j int) bool {
			ci, cj := len(rows[i].Complaint.Comments), len(rows[j].Complaint.Comments)
			if ci != cj {
				return ci > cj
			}
			return rows[i].Complaint.Seq > rows[j].Complaint.Seq
		})
	default: // SortNewest
		sort.Slice(rows, func(i, j int) bool {
			return rows[i].Complaint.Seq > rows[j].Complaint.Seq
		})
	}
}

// foldString normalizes a string for caseless matching using Unicode case
// folding, which handles cases ASCII lowering misses (e.g. İ, ß).
func foldString(s string) string {
	if s == "" {
		return s
	}
	return cases.Fold().String(s)
}
