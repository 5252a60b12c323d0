package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode"
	"unicode/utf8"

	"github.com/sakif/jobtrack/internal/analytics"
	"github.com/sakif/jobtrack/internal/kanban"
	"github.com/sakif/jobtrack/internal/model"
	"github.com/sakif/jobtrack/internal/pipeline"
	"github.com/sakif/jobtrack/internal/tracker"
	"github.com/sakif/jobtrack/internal/view"
)

// barWidth is the width in cells of a 100% bar in the stats charts.
const barWidth = 30

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// badge is the company initial the web client shows in a colored circle,
// here with its palette color name.
func badge(company string) string {
	initial := '?'
	if r, _ := utf8.DecodeRuneInString(company); r != utf8.RuneError {
		initial = unicode.ToUpper(r)
	}
	return fmt.Sprintf("[%c:%s]", initial, model.AvatarColor(company))
}

// stageMarks are the progress indicator glyphs: done, current, not reached.
var stageMarks = map[pipeline.StageState]string{
	pipeline.StagePast:   "✓",
	pipeline.StageActive: "●",
	pipeline.StageFuture: "○",
}

// progressLine renders the funnel position of status, e.g.
// "Applied ✓ / Interview ● / Offer ○". Rejected and withdrawn sit outside
// the funnel, so every stage is open and the closing status is appended.
func progressLine(status model.Status) string {
	var parts []string
	for _, p := range pipeline.Progress(status) {
		parts = append(parts, p.Stage.Info().Label+" "+stageMarks[p.State])
	}
	line := strings.Join(parts, " / ")
	if pipeline.Terminal(status) {
		line += " (closed: " + status.Info().Label + ")"
	}
	return line
}

func renderList(w io.Writer, apps []model.Application, f view.FilterState, total int) {
	fmt.Fprintf(w, "%d of %d applications (status=%s, sort=%s %s", len(apps), total, f.Status, f.SortKey, f.SortDir)
	if f.Search != "" {
		fmt.Fprintf(w, ", search=%q", f.Search)
	}
	fmt.Fprintln(w, ")")
	if len(apps) == 0 {
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tCOMPANY\tPOSITION\tSTATUS\tAPPLIED")
	for _, a := range apps {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			a.ID, a.Company, a.Position, a.Status.Info().Label, model.FormatMedium(a.AppliedDate))
	}
	tw.Flush()
}

func renderBoard(w io.Writer, b kanban.Board) {
	for _, col := range b {
		fmt.Fprintf(w, "== %s (%d) ==\n", col.Label, len(col.Applications))
		for _, a := range col.Applications {
			fmt.Fprintf(w, "  %s #%d %s, %s (%s)\n",
				badge(a.Company), a.ID, a.Company, a.Position, model.FormatShort(a.AppliedDate))
		}
	}
}

func bar(pct int) string {
	n := pct * barWidth / 100
	return strings.Repeat("#", n) + strings.Repeat(".", barWidth-n)
}

func renderStats(w io.Writer, s analytics.Snapshot) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Total\t%d\n", s.Total)
	fmt.Fprintf(tw, "Active\t%d\n", s.Active)
	fmt.Fprintf(tw, "Interview rate\t%d%%\n", s.InterviewRate)
	fmt.Fprintf(tw, "Offer rate\t%d%%\n", s.OfferRate)
	tw.Flush()

	if s.Total == 0 {
		fmt.Fprintln(w, "\nNo applications yet.")
		return
	}

	fmt.Fprintln(w, "\nBy status")
	tw = newTable(w)
	for _, d := range s.Distribution {
		fmt.Fprintf(tw, "  %s\t%s\t%d\t%d%%\n", d.Status.Info().Label, bar(d.BarPct), d.Count, d.LegendPct)
	}
	tw.Flush()

	fmt.Fprintln(w, "\nPer month")
	tw = newTable(w)
	for _, m := range s.Months {
		fmt.Fprintf(tw, "  %s\t%s\t%d\n", model.FormatMonthYear(m.Month), bar(m.HeightPct), m.Count)
	}
	tw.Flush()

	fmt.Fprintln(w, "\nFunnel")
	tw = newTable(w)
	for _, st := range s.Funnel {
		fmt.Fprintf(tw, "  %s\t%d\t%d%%\n", st.Status.Info().Label, st.Count, st.ConversionPct)
	}
	tw.Flush()
}

func renderApplication(w io.Writer, a model.Application) {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID\t%d\n", a.ID)
	fmt.Fprintf(tw, "Company\t%s %s\n", a.Company, badge(a.Company))
	fmt.Fprintf(tw, "Position\t%s\n", a.Position)
	fmt.Fprintf(tw, "Status\t%s\n", a.Status.Info().Label)
	fmt.Fprintf(tw, "Pipeline\t%s\n", progressLine(a.Status))
	fmt.Fprintf(tw, "Applied\t%s\n", model.FormatLong(a.AppliedDate))
	if a.URL != "" {
		fmt.Fprintf(tw, "URL\t%s\n", a.URL)
	}
	if a.Notes != "" {
		fmt.Fprintf(tw, "Notes\t%s\n", a.Notes)
	}
	if !a.UpdatedAt.IsZero() {
		fmt.Fprintf(tw, "Updated\t%s\n", a.UpdatedAt.Local().Format("Jan 2, 2006 15:04"))
	}
	tw.Flush()
}

// terminalNotifier reports store outcomes the way the web client shows
// toasts: one short line per event. Loads are silent unless they fail;
// failures are printed by main from the returned error.
type terminalNotifier struct {
	w io.Writer
}

var _ tracker.Notifier = terminalNotifier{}

func (n terminalNotifier) Notify(e tracker.Event) {
	if e.Failed() || e.Op == tracker.OpLoad {
		return
	}
	var msg string
	switch e.Op {
	case tracker.OpCreate:
		msg = "Application added"
	case tracker.OpUpdate:
		msg = "Application updated"
	case tracker.OpStatusChange:
		msg = "Status updated"
	case tracker.OpDelete:
		msg = "Application deleted"
	default:
		return
	}
	fmt.Fprintf(n.w, "✓ %s (#%d)\n", msg, e.ID)
}
