package onboarding

import (
	"fmt"
	"sort"
	"strings"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
)

const (
	// DefaultPageSize is the roster page size used by every HR list screen.
	DefaultPageSize = 5
	// NotAssigned is the assignedHR filter value that selects employees without an HR.
	NotAssigned = "Not Assigned"
	// hrPlaceholder is how an empty HR reference is rendered in lists.
	hrPlaceholder = "-"
)

// SortKey is the user-selected roster ordering inside each partition.
type SortKey string

const (
	SortNone        SortKey = ""
	SortJoiningAsc  SortKey = "doj_asc"
	SortJoiningDesc SortKey = "doj_desc"
)

// ParseSortKey validates a sort query value.
func ParseSortKey(raw string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(raw))); k {
	case SortNone, SortJoiningAsc, SortJoiningDesc:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", raw)
}

// RosterFilter holds the list filters. Empty fields match everything.
type RosterFilter struct {
	Status     string `json:"status,omitempty"`
	Department string `json:"department,omitempty"`
	JobTitle   string `json:"jobTitle,omitempty"`
	Location   string `json:"location,omitempty"`
	AssignedHR string `json:"assignedHR,omitempty"`
	Search     string `json:"search,omitempty"`
}

// RosterQuery is a filter plus ordering and a 1-based page.
type RosterQuery struct {
	Filter   RosterFilter
	Sort     SortKey
	Page     int
	PageSize int
}

// WithFilter replaces the filter and resets to the first page.
func (q RosterQuery) WithFilter(f RosterFilter) RosterQuery {
	q.Filter = f
	q.Page = 1
	return q
}

// RosterEntry is an employee with its derived label and badge color.
type RosterEntry struct {
	domain.Employee
	Status      Status `json:"status"`
	StatusColor string `json:"statusColor"`
}

// RosterPage is one page of the filtered and sorted roster.
type RosterPage struct {
	Entries    []RosterEntry `json:"entries"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

// Project attaches the derived label and color to each employee.
func Project(emps []domain.Employee) []RosterEntry {
	out := make([]RosterEntry, 0, len(emps))
	for i := range emps {
		status := StatusOf(&emps[i])
		out = append(out, RosterEntry{
			Employee:    emps[i],
			Status:      status,
			StatusColor: StatusColor(status),
		})
	}
	return out
}

// FilterRoster keeps entries matching every non-empty filter field.
func FilterRoster(entries []RosterEntry, f RosterFilter) []RosterEntry {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]RosterEntry, 0, len(entries))
	for _, e := range entries {
		if !matchesField(string(e.Status), f.Status) ||
			!matchesField(e.Department, f.Department) ||
			!matchesField(e.JobTitle, f.JobTitle) ||
			!matchesField(e.Location, f.Location) ||
			!matchesAssignedHR(e.OnboardingHRName, f.AssignedHR) ||
			!matchesSearch(&e.Employee, term) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchesField(value, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(value), want)
}

func matchesAssignedHR(name, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return true
	}
	name = strings.TrimSpace(name)
	if want == NotAssigned {
		return name == "" || name == hrPlaceholder
	}
	return strings.EqualFold(name, want)
}

func matchesSearch(e *domain.Employee, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.FirstName), term) ||
		strings.Contains(strings.ToLower(e.LastName), term) ||
		strings.Contains(strings.ToLower(e.Email), term)
}

// SortRoster returns a sorted copy. "Not Joined" entries always go last; the key orders
// each partition by date of joining with a missing date treated as the Unix epoch.
func SortRoster(entries []RosterEntry, key SortKey) []RosterEntry {
	out := make([]RosterEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		ni, nj := out[i].Status == StatusNotJoined, out[j].Status == StatusNotJoined
		if ni != nj {
			return !ni
		}
		ki, kj := joiningKey(&out[i].Employee), joiningKey(&out[j].Employee)
		switch key {
		case SortJoiningAsc:
			return ki < kj
		case SortJoiningDesc:
			return ki > kj
		}
		return false
	})
	return out
}

func joiningKey(e *domain.Employee) int64 {
	if e.DateOfJoining == nil {
		return 0
	}
	return e.DateOfJoining.Unix()
}

// Paginate slices one page. A page past the end is empty, not an error.
func Paginate(entries []RosterEntry, page, pageSize int) RosterPage {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	total := len(entries)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return RosterPage{
		Entries:    entries[start:end],
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// SelectRoster filters and sorts without paginating, as used by exports.
func SelectRoster(emps []domain.Employee, f RosterFilter, key SortKey) []RosterEntry {
	return SortRoster(FilterRoster(Project(emps), f), key)
}

// ApplyRoster runs the full filter, sort and paginate pipeline.
func ApplyRoster(emps []domain.Employee, q RosterQuery) RosterPage {
	return Paginate(SelectRoster(emps, q.Filter, q.Sort), q.Page, q.PageSize)
}
