package tablesession

import (
	"sort"
	"strings"

	"github.com/ohsdesk/mesa/internal/domain"
)

// FilterAll is the sentinel meaning "no restriction" for the purpose and
// status dimensions. The company dimension is a free-text substring and
// uses the empty string instead.
const FilterAll = "all"

// Filters is the three-dimension filter state of a table view. The
// dimensions are orthogonal; together they narrow the store snapshot
// into the visible set.
type Filters struct {
	Purpose string
	Status  string
	Company string
}

// NewFilters returns the unrestricted filter state.
func NewFilters() Filters {
	return Filters{Purpose: FilterAll, Status: FilterAll, Company: ""}
}

// Domains holds the legal values for each filter dimension, derived
// from the current record set. Each dimension's domain is computed with
// the other two dimensions applied but its own selection ignored, so
// choosing a value never hides its siblings from the option list.
type Domains struct {
	Purposes  []string
	Statuses  []string
	Companies []string
}

func matchesPurpose(r domain.TaskRecord, purpose string) bool {
	return purpose == FilterAll || domain.NormalizePurpose(r.Purpose) == purpose
}

func matchesStatus(r domain.TaskRecord, status string) bool {
	return status == FilterAll || strings.EqualFold(strings.TrimSpace(r.Status), status)
}

func matchesCompany(r domain.TaskRecord, substr string) bool {
	return substr == "" || strings.Contains(strings.ToLower(r.Company), strings.ToLower(substr))
}

// Matches reports whether the record passes all three dimensions.
func (f Filters) Matches(r domain.TaskRecord) bool {
	return matchesPurpose(r, f.Purpose) && matchesStatus(r, f.Status) && matchesCompany(r, f.Company)
}

// Visible narrows the snapshot to the records passing the filters,
// preserving store order.
func (f Filters) Visible(records []domain.TaskRecord) []domain.TaskRecord {
	out := make([]domain.TaskRecord, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// VisibleIDs returns the ids of the visible set in store order.
func (f Filters) VisibleIDs(records []domain.TaskRecord) []int64 {
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// ComputeDomains derives the three cross-filtered domains from the
// record set. For each dimension the record set is narrowed by the
// other two active dimensions only, then the distinct values of the
// target dimension are collected. Sorted for stable display.
func ComputeDomains(records []domain.TaskRecord, f Filters) Domains {
	purposes := map[string]struct{}{}
	statuses := foldSet{}
	companies := foldSet{}

	for _, r := range records {
		if matchesStatus(r, f.Status) && matchesCompany(r, f.Company) {
			purposes[domain.NormalizePurpose(r.Purpose)] = struct{}{}
		}
		if matchesPurpose(r, f.Purpose) && matchesCompany(r, f.Company) {
			statuses.add(strings.TrimSpace(r.Status))
		}
		if matchesPurpose(r, f.Purpose) && matchesStatus(r, f.Status) {
			companies.add(strings.TrimSpace(r.Company))
		}
	}

	return Domains{
		Purposes:  sortedKeys(purposes),
		Statuses:  statuses.sorted(),
		Companies: companies.sorted(),
	}
}

// foldSet deduplicates case-insensitively, keeping the first-seen
// display casing. Backend labels drift in case ("Pending" next to
// "pending") and the matchers fold, so the option list must too.
type foldSet map[string]string

func (s foldSet) add(v string) {
	if v == "" {
		return
	}
	if key := strings.ToLower(v); s[key] == "" {
		s[key] = v
	}
}

func (s foldSet) sorted() []string {
	out := make([]string, 0, len(s))
	for _, v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Invalidate resets any selected filter value that is no longer legal
// in its domain. Must run whenever the record set or the other filters
// change, not only on mount: a bulk action or refresh can remove the
// last record matching a selected value.
func (f Filters) Invalidate(d Domains) Filters {
	out := f
	if out.Purpose != FilterAll && !containsFold(d.Purposes, out.Purpose) {
		out.Purpose = FilterAll
	}
	if out.Status != FilterAll && !containsFold(d.Statuses, out.Status) {
		out.Status = FilterAll
	}
	if out.Company != "" && !anyContainsFold(d.Companies, out.Company) {
		out.Company = ""
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

func anyContainsFold(values []string, substr string) bool {
	sub := strings.ToLower(substr)
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), sub) {
			return true
		}
	}
	return false
}
