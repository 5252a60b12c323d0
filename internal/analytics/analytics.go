// Package analytics computes dashboard statistics over the full, unfiltered
// application collection.
//
// Compute is pure. Every ratio is zero-guarded, so an empty collection
// yields zeros rather than NaN.
package analytics

import (
	"math"
	"sort"

	"github.com/sakif/jobtrack/internal/model"
	"github.com/sakif/jobtrack/internal/pipeline"
)

// Snapshot is the derived analytics view. It is never persisted.
type Snapshot struct {
	Total         int                `json:"total"`
	Counts        model.StatusCounts `json:"counts"`
	InterviewRate int                `json:"interview_rate"` // % that reached interview or offer
	OfferRate     int                `json:"offer_rate"`
	Active        int                `json:"active"` // applied + interview
	Months        []MonthBucket      `json:"months"`
	Distribution  []StatusShare      `json:"distribution"`
	Funnel        []FunnelStage      `json:"funnel"`
}

// MonthBucket counts applications submitted in one calendar month.
type MonthBucket struct {
	Month     string `json:"month"` // YYYY-MM
	Count     int    `json:"count"`
	HeightPct int    `json:"height_pct"` // relative to the busiest month
}

// StatusShare is one row of the status distribution chart.
//
// BarPct and LegendPct use different denominators on purpose: the bar is
// scaled against the largest status count so the longest bar fills the
// chart, while the legend reports the share of all applications.
type StatusShare struct {
	Status    model.Status `json:"status"`
	Count     int          `json:"count"`
	BarPct    int          `json:"bar_pct"`
	LegendPct int          `json:"legend_pct"`
}

// FunnelStage is one step of applied → interview → offer.
type FunnelStage struct {
	Status        model.Status `json:"status"`
	Count         int          `json:"count"`
	ConversionPct int          `json:"conversion_pct"` // vs previous stage; stage 0 vs total
}

// Compute aggregates records.
func Compute(records []model.Application) Snapshot {
	var counts model.StatusCounts
	months := make(map[string]int)
	for _, r := range records {
		if i := r.Status.Index(); i >= 0 {
			counts[i]++
		}
		months[model.MonthKey(r.AppliedDate)]++
	}

	total := len(records)
	interview := counts.Get(model.StatusInterview)
	offer := counts.Get(model.StatusOffer)

	return Snapshot{
		Total:         total,
		Counts:        counts,
		InterviewRate: Percent(interview+offer, total),
		OfferRate:     Percent(offer, total),
		Active:        counts.Get(model.StatusApplied) + interview,
		Months:        monthly(months),
		Distribution:  distribution(counts, total),
		Funnel:        funnel(counts, total),
	}
}

// Percent returns round(n/d*100), or 0 when d is not positive. Rounding is
// half-up, matching what the dashboard has always displayed.
func Percent(n, d int) int {
	if d <= 0 {
		return 0
	}
	return int(math.Floor(float64(n)/float64(d)*100 + 0.5))
}

// monthly emits buckets in ascending month order. "YYYY-MM" keys sort
// chronologically as plain strings.
func monthly(months map[string]int) []MonthBucket {
	keys := make([]string, 0, len(months))
	peak := 1
	for k, n := range months {
		keys = append(keys, k)
		if n > peak {
			peak = n
		}
	}
	sort.Strings(keys)

	out := make([]MonthBucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, MonthBucket{
			Month:     k,
			Count:     months[k],
			HeightPct: Percent(months[k], peak),
		})
	}
	return out
}

// distribution builds the status chart rows.
//
// TWO DENOMINATORS:
// The chart draws one horizontal bar per status and a legend beside it.
// The bar is scaled against the busiest status, so that status always fills
// the full width; the legend is the share of all applications. With
// applied=6, interview=3, offer=1 (total 10):
//
//	status     bar   legend
//	applied    100%   60%
//	interview   50%   30%
//	offer       17%   10%
//
// The two columns therefore never agree unless one status holds every
// application. max(...,1) keeps the bar base nonzero for an empty
// collection, and Percent guards the zero total.
func distribution(counts model.StatusCounts, total int) []StatusShare {
	barBase := max(counts.Max(), 1)

	out := make([]StatusShare, 0, model.StatusCount)
	for i, s := range model.Statuses {
		out = append(out, StatusShare{
			Status:    s,
			Count:     counts[i],
			BarPct:    Percent(counts[i], barBase),
			LegendPct: Percent(counts[i], total),
		})
	}
	return out
}

// funnel computes stage-to-stage conversion along applied → interview →
// offer. Each stage is measured against the one before it; the first stage
// has no predecessor and is measured against the total, so with 10
// applications of which 4 are still "applied" it reads 40%, not 100%.
func funnel(counts model.StatusCounts, total int) []FunnelStage {
	out := make([]FunnelStage, 0, len(pipeline.FunnelStages))
	prev := total
	for _, s := range pipeline.FunnelStages {
		n := counts.Get(s)
		out = append(out, FunnelStage{
			Status:        s,
			Count:         n,
			ConversionPct: Percent(n, prev),
		})
		prev = n
	}
	return out
}
