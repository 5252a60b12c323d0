// Package view derives the visible, ordered subset of applications from the
// full collection and a FilterState.
//
// Everything here is pure: Derive never touches its input slice and always
// returns the same result for the same two arguments.
package view

import (
	"cmp"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sakif/jobtrack/internal/apperror"
	"github.com/sakif/jobtrack/internal/model"
)

// SortKey selects the single active sort column.
type SortKey string

const (
	SortByDate    SortKey = "date"
	SortByCompany SortKey = "company"
	SortByStatus  SortKey = "status"
)

// Valid reports whether k is a known sort key.
func (k SortKey) Valid() bool {
	return k == SortByDate || k == SortByCompany || k == SortByStatus
}

// SortDir is the sort direction.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// Flip returns the opposite direction.
func (d SortDir) Flip() SortDir {
	if d == Asc {
		return Desc
	}
	return Asc
}

// StatusFilter is either a pipeline status or AllStatuses.
type StatusFilter string

// AllStatuses disables status filtering.
const AllStatuses StatusFilter = "all"

// Matches reports whether an application in status s passes the filter.
func (f StatusFilter) Matches(s model.Status) bool {
	return f == AllStatuses || f == "" || model.Status(f) == s
}

// FilterState is the search/filter/sort configuration driving the visible
// subset. The zero value filters nothing and sorts by date ascending.
type FilterState struct {
	Search  string       `json:"search"`
	Status  StatusFilter `json:"status"`
	SortKey SortKey      `json:"sort"`
	SortDir SortDir      `json:"dir"`
}

// DefaultFilter is the state a fresh dashboard starts in: everything,
// newest application first.
func DefaultFilter() FilterState {
	return FilterState{
		Status:  AllStatuses,
		SortKey: SortByDate,
		SortDir: Desc,
	}
}

// ToggleSort applies the column-header rule: choosing the active key flips
// the direction, choosing another key activates it in ascending order.
func (f FilterState) ToggleSort(key SortKey) FilterState {
	if f.SortKey == key {
		f.SortDir = f.SortDir.Flip()
		return f
	}
	f.SortKey = key
	f.SortDir = Asc
	return f
}

// Derive filters by status, then by search text, then sorts. The search is a
// case-insensitive literal substring match against company or position; an
// empty search matches everything.
func Derive(records []model.Application, f FilterState) []model.Application {
	fold := cases.Fold()
	query := fold.String(f.Search)

	out := make([]model.Application, 0, len(records))
	for _, r := range records {
		if !f.Status.Matches(r.Status) {
			continue
		}
		if query != "" &&
			!strings.Contains(fold.String(r.Company), query) &&
			!strings.Contains(fold.String(r.Position), query) {
			continue
		}
		out = append(out, r)
	}

	// ORDERING:
	// Each key defines an ascending comparison; desc negates it. Records
	// that compare equal on the key (same date, same company, same status)
	// fall back to their id. Because the id comparison is negated together
	// with the key, desc is always the exact reverse of asc, and toggling a
	// column header twice returns the list to where it started:
	//
	//	date asc:   #3 2026-01-05, #1 2026-02-10, #2 2026-02-10
	//	date desc:  #2 2026-02-10, #1 2026-02-10, #3 2026-01-05
	//
	// A stable sort on its own would keep server order for ties in both
	// directions, and desc would not be a reversal.
	compare := comparator(f.SortKey)
	desc := f.SortDir == Desc
	slices.SortStableFunc(out, func(a, b model.Application) int {
		c := compare(a, b)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if desc {
			return -c
		}
		return c
	})
	return out
}

// comparator returns the ascending comparison for key. Unknown keys fall
// back to date, the dashboard default.
func comparator(key SortKey) func(a, b model.Application) int {
	switch key {
	case SortByCompany:
		// collate.Collator keeps internal buffers, so each Derive call
		// builds its own.
		coll := collate.New(language.English)
		return func(a, b model.Application) int {
			return coll.CompareString(a.Company, b.Company)
		}
	case SortByStatus:
		return func(a, b model.Application) int {
			return cmp.Compare(a.Status.Index(), b.Status.Index())
		}
	default:
		return func(a, b model.Application) int {
			return strings.Compare(a.AppliedDate, b.AppliedDate)
		}
	}
}

// ParseFilter builds a FilterState from query parameters search, status,
// sort and dir. Missing parameters take DefaultFilter values.
func ParseFilter(q url.Values) (FilterState, error) {
	f := DefaultFilter()
	f.Search = q.Get("search")

	verrs := apperror.ValidationErrors{}
	if raw := q.Get("status"); raw != "" {
		if raw != string(AllStatuses) && !model.Status(raw).Valid() {
			verrs.Add("status", "status must be all or one of applied, interview, offer, rejected, withdrawn")
		}
		f.Status = StatusFilter(raw)
	}
	if raw := q.Get("sort"); raw != "" {
		if !SortKey(raw).Valid() {
			verrs.Add("sort", "sort must be one of date, company, status")
		}
		f.SortKey = SortKey(raw)
	}
	if raw := q.Get("dir"); raw != "" {
		if raw != string(Asc) && raw != string(Desc) {
			verrs.Add("dir", "dir must be asc or desc")
		}
		f.SortDir = SortDir(raw)
	}
	if err := verrs.Err(); err != nil {
		return FilterState{}, err
	}
	return f, nil
}

// Values is the inverse of ParseFilter, used by API clients.
func (f FilterState) Values() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.SortKey != "" {
		q.Set("sort", string(f.SortKey))
	}
	if f.SortDir != "" {
		q.Set("dir", string(f.SortDir))
	}
	return q
}
