package view

import (
	"net/url"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/jobtrack/internal/apperror"
	"github.com/sakif/jobtrack/internal/model"
)

func app(id int64, company, position string, status model.Status, date string) model.Application {
	return model.Application{ID: id, Company: company, Position: position, Status: status, AppliedDate: date}
}

func companies(apps []model.Application) []string {
	out := make([]string, len(apps))
	for i, a := range apps {
		out[i] = a.Company
	}
	return out
}

func sampleRecords() []model.Application {
	return []model.Application{
		app(1, "Stripe", "Backend Engineer", model.StatusInterview, "2026-02-10"),
		app(2, "acme", "Platform Engineer", model.StatusApplied, "2026-01-05"),
		app(3, "Basecamp", "SRE", model.StatusOffer, "2026-03-01"),
		app(4, "Zeta (Labs)", "Data Engineer", model.StatusRejected, "2026-01-20"),
		app(5, "Écurie", "Frontend Developer", model.StatusWithdrawn, "2026-02-01"),
		app(6, "Linear", "Product Engineer", model.StatusApplied, "2026-02-10"),
	}
}

func TestDerive_DateOrderAndToggle(t *testing.T) {
	records := []model.Application{
		app(1, "A", "Eng", model.StatusApplied, "2026-01-05"),
		app(2, "B", "Eng", model.StatusInterview, "2026-02-10"),
	}
	f := FilterState{Status: AllStatuses, SortKey: SortByDate, SortDir: Asc}

	assert.Equal(t, []string{"A", "B"}, companies(Derive(records, f)))

	f = f.ToggleSort(SortByDate)
	assert.Equal(t, Desc, f.SortDir)
	assert.Equal(t, []string{"B", "A"}, companies(Derive(records, f)))
}

func TestDerive_CaseInsensitiveSearch(t *testing.T) {
	records := sampleRecords()

	for _, q := range []string{"strip", "STRIP", "sTrIp"} {
		got := Derive(records, FilterState{Search: q, Status: AllStatuses, SortKey: SortByDate})
		require.Len(t, got, 1, "search %q", q)
		assert.Equal(t, "Stripe", got[0].Company)
	}

	got := Derive(records, FilterState{Search: "zzz", Status: AllStatuses})
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestDerive_SearchMatchesPosition(t *testing.T) {
	got := Derive(sampleRecords(), FilterState{Search: "engineer", Status: AllStatuses, SortKey: SortByCompany, SortDir: Asc})
	assert.Equal(t, []string{"acme", "Linear", "Stripe", "Zeta (Labs)"}, companies(got))
}

func TestDerive_SearchIsLiteral(t *testing.T) {
	records := sampleRecords()

	got := Derive(records, FilterState{Search: "(labs)", Status: AllStatuses})
	require.Len(t, got, 1)
	assert.Equal(t, "Zeta (Labs)", got[0].Company)

	assert.Empty(t, Derive(records, FilterState{Search: ".*", Status: AllStatuses}))
}

func TestDerive_StatusFilter(t *testing.T) {
	got := Derive(sampleRecords(), FilterState{Status: StatusFilter(model.StatusApplied), SortKey: SortByDate, SortDir: Asc})
	assert.Equal(t, []string{"acme", "Linear"}, companies(got))
}

func TestDerive_StatusSortUsesPipelineIndex(t *testing.T) {
	got := Derive(sampleRecords(), FilterState{Status: AllStatuses, SortKey: SortByStatus, SortDir: Asc})

	statuses := make([]model.Status, len(got))
	for i, a := range got {
		statuses[i] = a.Status
	}
	// Ties (the two applied records) are broken by id.
	assert.Equal(t, []model.Status{
		model.StatusApplied, model.StatusApplied,
		model.StatusInterview, model.StatusOffer,
		model.StatusRejected, model.StatusWithdrawn,
	}, statuses)
}

func TestDerive_CompanyIsLocaleAware(t *testing.T) {
	got := Derive(sampleRecords(), FilterState{Status: AllStatuses, SortKey: SortByCompany, SortDir: Asc})
	// Byte order would put "acme" and "Écurie" last; collation interleaves
	// case and accents the way a human reads them.
	assert.Equal(t, []string{"acme", "Basecamp", "Écurie", "Linear", "Stripe", "Zeta (Labs)"}, companies(got))
}

func TestDerive_EmptyCollection(t *testing.T) {
	got := Derive(nil, DefaultFilter())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDerive_DoesNotMutateInput(t *testing.T) {
	records := sampleRecords()
	before := slices.Clone(records)

	_ = Derive(records, FilterState{Status: AllStatuses, SortKey: SortByCompany, SortDir: Desc})

	assert.Equal(t, before, records)
}

func TestDerive_FilterIdempotent(t *testing.T) {
	records := sampleRecords()
	filters := []FilterState{
		{Search: "eng", Status: AllStatuses, SortKey: SortByDate, SortDir: Desc},
		{Search: "", Status: StatusFilter(model.StatusApplied), SortKey: SortByCompany, SortDir: Asc},
		{Search: "e", Status: AllStatuses, SortKey: SortByStatus, SortDir: Asc},
	}

	for _, f := range filters {
		once := Derive(records, f)
		twice := Derive(once, f)
		assert.Equal(t, once, twice, "filter %+v", f)
	}
}

func TestDerive_ToggleReversesExactly(t *testing.T) {
	records := sampleRecords()

	for _, key := range []SortKey{SortByDate, SortByCompany, SortByStatus} {
		asc := FilterState{Status: AllStatuses, SortKey: key, SortDir: Asc}
		desc := asc.ToggleSort(key)

		forward := Derive(records, asc)
		backward := Derive(records, desc)

		reversed := slices.Clone(backward)
		slices.Reverse(reversed)
		assert.Equal(t, forward, reversed, "key %s", key)

		// Toggling back restores the original order.
		assert.Equal(t, forward, Derive(records, desc.ToggleSort(key)), "key %s", key)
	}
}

func TestToggleSort(t *testing.T) {
	f := FilterState{SortKey: SortByDate, SortDir: Desc}

	f = f.ToggleSort(SortByDate)
	assert.Equal(t, FilterState{SortKey: SortByDate, SortDir: Asc}, f)

	f = f.ToggleSort(SortByCompany)
	assert.Equal(t, FilterState{SortKey: SortByCompany, SortDir: Asc}, f)

	f = f.ToggleSort(SortByCompany)
	assert.Equal(t, Desc, f.SortDir)

	// Switching keys always starts ascending, even when the direction was desc.
	f = f.ToggleSort(SortByStatus)
	assert.Equal(t, FilterState{SortKey: SortByStatus, SortDir: Asc}, f)
}

func TestDefaultFilter(t *testing.T) {
	f := DefaultFilter()
	assert.Equal(t, AllStatuses, f.Status)
	assert.Equal(t, SortByDate, f.SortKey)
	assert.Equal(t, Desc, f.SortDir)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(url.Values{
		"search": {"strip"},
		"status": {"offer"},
		"sort":   {"company"},
		"dir":    {"asc"},
	})
	require.NoError(t, err)
	assert.Equal(t, FilterState{Search: "strip", Status: "offer", SortKey: SortByCompany, SortDir: Asc}, f)

	f, err = ParseFilter(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, DefaultFilter(), f)
}

func TestParseFilter_Invalid(t *testing.T) {
	_, err := ParseFilter(url.Values{"status": {"ghosted"}, "dir": {"up"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	fields := apperror.Fields(err)
	assert.Contains(t, fields, "status")
	assert.Contains(t, fields, "dir")
}

func TestValues_RoundTrip(t *testing.T) {
	f := FilterState{Search: "a b", Status: AllStatuses, SortKey: SortByStatus, SortDir: Desc}
	got, err := ParseFilter(f.Values())
	require.NoError(t, err)
	assert.Equal(t, f, got)
}
