// Dashboard aggregates, recomputed from the full complaint set on demand.
package query

import (
	"sort"
	"time"

	"github.com/campusvoice/go-complaint-backend/internal/domain"
)

// topN caps the group-by leaderboards on the admin dashboard.
const topN = 5

// CountEntry is one leaderboard bucket: a group key and how many complaints
// fell into it.
type CountEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DashboardStats are the admin dashboard aggregates. All values are derived
// from the row snapshot passed to Stats; nothing here is persisted.
type DashboardStats struct {
	TotalComplaints int          `json:"total_complaints"`
	UnresolvedAged  int          `json:"unresolved_aged"`
	TopCategories   []CountEntry `json:"top_categories"`
	TopAuthorities  []CountEntry `json:"top_authorities"`
}

// Stats computes the dashboard aggregates at the given instant.
//
// UnresolvedAged counts complaints that are escalation-eligible (unresolved
// and older than the aging window), using the same domain predicate as the
// lifecycle layer, so the two counts can never diverge.
//
// TopCategories and TopAuthorities are group-by-count leaderboards sorted by
// count descending, ties broken by first appearance in the input (which
// follows insertion order for the canonical row slice), truncated to the top
// five. Authority buckets are keyed by the resolved authority name from the
// authorities map; a complaint whose assignee is absent from the map or
// inactive is treated as unassigned and contributes to no bucket, the same
// rule the complaint views apply.
func Stats(rows []Row, authorities map[string]domain.Authority, now time.Time, window time.Duration) DashboardStats {
	st := DashboardStats{TotalComplaints: len(rows)}

	catCounts := newGroupCount()
	authCounts := newGroupCount()
	for _, r := range rows {
		c := r.Complaint
		if c.EscalationEligible(now, window) {
			st.UnresolvedAged++
		}
		catCounts.add(c.Category)
		if c.AssignedAuthorityID != nil && *c.AssignedAuthorityID != "" {
			if a, found := authorities[*c.AssignedAuthorityID]; found && a.Active {
				authCounts.add(a.Name)
			}
		}
	}

	st.TopCategories = catCounts.top(topN)
	st.TopAuthorities = authCounts.top(topN)
	return st
}

// groupCount tallies occurrences while remembering first-seen order for
// deterministic tie-breaking.
type groupCount struct {
	counts map[string]int
	order  []string
}

func newGroupCount() *groupCount {
	return &groupCount{counts: map[string]int{}}
}

func (g *groupCount) add(key string) {
	if _, seen := g.counts[key]; !seen {
		g.order = append(g.order, key)
	}
	g.counts[key]++
}

// top returns up to n entries sorted by count descending, ties resolved by
// first-seen order (case-sensitive keys).
func (g *groupCount) top(n int) []CountEntry {
	firstSeen := make(map[string]int, len(g.order))
	for i, k := range g.order {
		firstSeen[k] = i
	}
	entries := make([]CountEntry, 0, len(g.order))
	for _, k := range g.order {
		entries = append(entries, CountEntry{Name: k, Count: g.counts[k]})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return firstSeen[entries[i].Name] < firstSeen[entries[j].Name]
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
