package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/donaldgifford/chatwatch/internal/config"
	"github.com/donaldgifford/chatwatch/internal/engine"
	"github.com/donaldgifford/chatwatch/internal/rules"
	"github.com/donaldgifford/chatwatch/pkg/logger"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

type dryrunOptions struct {
	rulesPath  string
	eventsPath string
	at         string
	ticks      int
	step       time.Duration
	fromStore  bool
}

// dryrunOutput is the JSON form of a replay.
type dryrunOutput struct {
	Reports  []*engine.TickReport `json:"reports"`
	Rejected []string             `json:"rejected,omitempty"`
}

func dryrunCmd() *cobra.Command {
	var opts dryrunOptions

	cmd := &cobra.Command{
		Use:   "dryrun",
		Short: "Evaluate rules against recorded events without notifying",
		Long: "Replays recorded metric events through a rule file with a simulated\n" +
			"clock and prints what each tick would have raised or resolved. Events\n" +
			"come from a JSON Lines file, one metric event or request record per\n" +
			"line, or from the configured PostgreSQL store. No sink is contacted.",
		Example: `  chatwatch dryrun --rules rules.yaml --events events.jsonl
  chatwatch dryrun --rules rules.yaml --events events.jsonl --at 2026-10-14T12:00:00Z --ticks 30 --step 1m
  chatwatch dryrun --from-store --ticks 60 --step 1m --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDryrun(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.rulesPath, "rules", "", "rule file (default: rules.path from --config)")
	cmd.Flags().StringVar(&opts.eventsPath, "events", "", "JSON Lines file of events, - for stdin")
	cmd.Flags().StringVar(&opts.at, "at", "", "first tick time, RFC 3339 (default: newest event)")
	cmd.Flags().IntVar(&opts.ticks, "ticks", 1, "number of ticks to replay")
	cmd.Flags().DurationVar(&opts.step, "step", time.Minute, "simulated time between ticks")
	cmd.Flags().BoolVar(&opts.fromStore, "from-store", false, "read events from the configured database")
	cmd.MarkFlagsMutuallyExclusive("events", "from-store")
	cmd.MarkFlagsOneRequired("events", "from-store")

	return cmd
}

func runDryrun(ctx context.Context, opts *dryrunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var at time.Time
	if opts.at != "" {
		parsed, err := time.Parse(time.RFC3339, opts.at)
		if err != nil {
			return fmt.Errorf("parsing --at: %w", err)
		}
		at = parsed
	}

	var cfg *config.Config
	if opts.rulesPath == "" || opts.fromStore {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	rulesPath := opts.rulesPath
	if rulesPath == "" {
		rulesPath = cfg.Rules.Path
	}
	set, err := rules.Load(rulesPath)
	if err != nil {
		return err
	}

	var events []domain.MetricEvent
	if opts.fromStore {
		events, err = storeEvents(ctx, cfg, set, at, opts)
	} else {
		events, err = fileEvents(opts.eventsPath)
	}
	if err != nil {
		return err
	}

	res, err := engine.Replay(ctx, set, events, engine.ReplayOptions{
		At:    at,
		Ticks: opts.ticks,
		Step:  opts.step,
		Log:   logger.NewWithWriter(os.Stderr, "warn", "text"),
	})
	if err != nil {
		return fmt.Errorf("replaying events: %w", err)
	}

	return writeDryrun(os.Stdout, res, jsonOutput())
}

func fileEvents(path string) ([]domain.MetricEvent, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path) //nolint:gosec // path from trusted CLI flag
		if err != nil {
			return nil, fmt.Errorf("opening events file: %w", err)
		}
		defer f.Close()
		r = f
	}

	events, bad, err := parseEventLines(r)
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	for _, e := range bad {
		fmt.Fprintln(os.Stderr, "skipping", e)
	}
	return events, nil
}

func storeEvents(
	ctx context.Context,
	cfg *config.Config,
	set *domain.RuleSet,
	at time.Time,
	opts *dryrunOptions,
) ([]domain.MetricEvent, error) {
	if !cfg.Database.Enabled() {
		return nil, errors.New("--from-store needs database.host in the config")
	}
	st, err := openStore(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	if at.IsZero() {
		at = time.Now().Add(-time.Duration(max(opts.ticks-1, 0)) * opts.step)
	}
	since := at.Add(-set.MaxWindow())
	until := at.Add(time.Duration(max(opts.ticks-1, 0)) * opts.step)

	events, err := st.ListMetricEvents(ctx, since, until)
	if err != nil {
		return nil, fmt.Errorf("listing stored events: %w", err)
	}
	return events, nil
}

// lineError describes one unusable line of an events file.
type lineError struct {
	Line int
	Err  error
}

func (e lineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// parseEventLines reads JSON Lines where each line is either a metric event
// or a request record (any object with an "outcome" field). Blank lines and
// lines starting with # are ignored. Bad lines are returned, not fatal.
func parseEventLines(r io.Reader) ([]domain.MetricEvent, []lineError, error) {
	var (
		events []domain.MetricEvent
		bad    []lineError
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	n := 0
	for sc.Scan() {
		n++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if !gjson.ValidBytes(line) {
			bad = append(bad, lineError{Line: n, Err: errors.New("invalid JSON")})
			continue
		}

		if gjson.GetBytes(line, "outcome").Exists() {
			var rec domain.RequestRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				bad = append(bad, lineError{Line: n, Err: err})
				continue
			}
			evs, err := rec.Events()
			if err != nil {
				bad = append(bad, lineError{Line: n, Err: err})
				continue
			}
			events = append(events, evs...)
			continue
		}

		var ev domain.MetricEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			bad = append(bad, lineError{Line: n, Err: err})
			continue
		}
		if err := ev.Validate(); err != nil {
			bad = append(bad, lineError{Line: n, Err: err})
			continue
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	return events, bad, nil
}

func writeDryrun(w io.Writer, res *engine.ReplayResult, asJSON bool) error {
	if asJSON {
		out := dryrunOutput{Reports: res.Reports}
		for _, err := range res.Rejected {
			out.Rejected = append(out.Rejected, err.Error())
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for i, report := range res.Reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := printTickReport(w, report); err != nil {
			return err
		}
	}
	if len(res.Rejected) > 0 {
		fmt.Fprintf(w, "\n%d event(s) rejected by the aggregator.\n", len(res.Rejected))
	}
	return nil
}
