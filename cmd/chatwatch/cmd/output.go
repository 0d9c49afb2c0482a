package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/donaldgifford/chatwatch/internal/api/handlers"
	"github.com/donaldgifford/chatwatch/internal/engine"
	"github.com/donaldgifford/chatwatch/internal/rules"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

const timeLayout = "2006-01-02 15:04:05"

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printAlertsTable(w io.Writer, alerts []domain.AlertInstance) error {
	tw := newTabWriter(w)
	tw.writef("ID\tRULE\tSTATE\tOPENED\tLAST VALUE\tNOTIFIED\tRESOLVED\n")
	for i := range alerts {
		a := &alerts[i]
		resolved := "-"
		if a.ResolvedAt != nil {
			resolved = a.ResolvedAt.Format(timeLayout)
		}
		tw.writef("%s\t%s\t%s\t%s\t%.4f\t%d\t%s\n",
			truncate(a.ID, 12),
			a.RuleID,
			a.State,
			a.OpenedAt.Format(timeLayout),
			a.LastValue,
			a.NotifyCount,
			resolved,
		)
	}
	return tw.finish()
}

func printReloadError(w io.Writer, re *rules.ReloadError) {
	if re == nil {
		return
	}
	fmt.Fprintf(w, "\nLast rule reload failed at %s: %s\n", re.At.Format(timeLayout), re.Message)
}

func printRulesTable(w io.Writer, rs []domain.Rule) error {
	tw := newTabWriter(w)
	tw.writef("ID\tKIND\tSTATISTIC\tCONDITION\tWINDOW\tMIN SAMPLES\tDEBOUNCE\tSEVERITY\n")
	for i := range rs {
		r := &rs[i]
		tw.writef("%s\t%s\t%s\t%s %g\t%s\t%d\t%s\t%s\n",
			r.ID,
			r.MetricKind,
			r.EffectiveStatistic(),
			r.Comparator,
			r.Threshold,
			r.Window,
			r.MinSampleCount,
			r.Debounce,
			r.Severity,
		)
	}
	return tw.finish()
}

func printNotificationsTable(w io.Writer, ns []domain.AlertNotification) error {
	tw := newTabWriter(w)
	tw.writef("TIME\tRULE\tTRANSITION\tVALUE\tTHRESHOLD\tSEVERITY\n")
	for i := range ns {
		n := &ns[i]
		tw.writef("%s\t%s\t%s\t%.4f\t%s %g\t%s\n",
			n.Timestamp.Format(timeLayout),
			n.RuleID,
			n.Transition,
			n.Value,
			n.Comparator,
			n.Threshold,
			n.Severity,
		)
	}
	return tw.finish()
}

func printTickReport(w io.Writer, r *engine.TickReport) error {
	fmt.Fprintf(w, "Tick %s at %s (%s)\n\n", r.Trigger, r.At.Format(time.RFC3339), r.Duration)

	tw := newTabWriter(w)
	tw.writef("RULE\tSTATISTIC\tVALUE\tSAMPLES\tBREACHED\n")
	for i := range r.Outcomes {
		o := &r.Outcomes[i]
		breached := fmt.Sprintf("%v", o.Breached)
		if o.Underfilled {
			breached = "underfilled"
		}
		tw.writef("%s\t%s\t%.4f\t%d\t%s\n", o.RuleID, o.Statistic, o.Value, o.Count, breached)
	}
	if err := tw.finish(); err != nil {
		return err
	}

	if len(r.Notifications) == 0 {
		_, err := fmt.Fprintln(w, "\nNo transitions.")
		return err
	}
	fmt.Fprintln(w)
	return printNotificationsTable(w, r.Notifications)
}

func printStatus(w io.Writer, s *handlers.StatusBody) error {
	tw := newTabWriter(w)
	tw.writef("Version:\t%s\n", s.Version)
	tw.writef("Retention:\t%s\n", s.Retention)
	tw.writef("Next probe:\t%s\n", formatOptionalTime(s.NextProbe))
	tw.writef("Next tick:\t%s\n", formatOptionalTime(s.NextTick))
	if s.LastTick != nil {
		tw.writef("Last tick:\t%s (%s, %dms, %d rules, %d notifications)\n",
			s.LastTick.At.Format(timeLayout),
			s.LastTick.Trigger,
			s.LastTick.DurationMS,
			s.LastTick.Rules,
			s.LastTick.Notifications,
		)
	}
	if err := tw.finish(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = newTabWriter(w)
	tw.writef("KIND\tSAMPLES\tOLDEST\tNEWEST\n")
	for i := range s.Series {
		ss := &s.Series[i]
		tw.writef("%s\t%d\t%s\t%s\n", ss.Kind, ss.Samples, formatOptionalTime(ss.Oldest), formatOptionalTime(ss.Newest))
	}
	if err := tw.finish(); err != nil {
		return err
	}

	printReloadError(w, s.LastReloadError)
	return nil
}

func formatOptionalTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
