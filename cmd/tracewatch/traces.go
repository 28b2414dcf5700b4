package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/GriffinCanCode/AgentOS/console/internal/format"
	"github.com/GriffinCanCode/AgentOS/console/internal/shared/utils"
	"github.com/GriffinCanCode/AgentOS/console/internal/tracing"
	"github.com/GriffinCanCode/AgentOS/console/internal/tracing/llm"
)

type filterFlags struct {
	query   string
	model   string
	backend string
	status  string
}

func (f *filterFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.query, "query", "q", "", "Free-text search")
	fs.StringVar(&f.model, "model", "", "Only traces for this model ID")
	fs.StringVar(&f.backend, "backend", "", "Only traces from this backend")
	fs.StringVar(&f.status, "status", "", "Only traces with this status: pending, success, failed")
}

// route returns the filters that can be seeded like dashboard route
// parameters.
func (f filterFlags) route() map[string]string {
	return map[string]string{"model": f.model, "backend": f.backend}
}

// apply sets every filter on e without fetching.
func (f filterFlags) apply(e *llm.Engine) error {
	e.SetQuery(f.query)
	return errors.Join(
		e.SetFilter(llm.FilterModel, f.model),
		e.SetFilter(llm.FilterBackend, f.backend),
		e.SetFilter(llm.FilterStatus, f.status),
	)
}

func (f filterFlags) validate() error {
	switch tracing.Status(f.status) {
	case "", tracing.StatusPending, tracing.StatusSuccess, tracing.StatusFailed:
	default:
		return fmt.Errorf("invalid --status %q", f.status)
	}
	return utils.ValidateFilters(f.query, map[string]string{
		llm.FilterModel:   f.model,
		llm.FilterBackend: f.backend,
	})
}

func newListCmd(a *app) *cobra.Command {
	var (
		filters  filterFlags
		page     int
		pageSize int
		output   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of traces",
		Example: `  tracewatch list --model gpt-4o --status failed
  tracewatch list --page 3 --page-size 50 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := filters.validate(); err != nil {
				return err
			}
			engine, err := a.newEngine(engineOptions{notifier: stderrNotifier{cmd.ErrOrStderr()}, pageSize: pageSize})
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := filters.apply(engine); err != nil {
				return err
			}
			if !engine.SetPage(cmd.Context(), page) {
				return errors.New("failed to fetch traces")
			}

			out := cmd.OutOrStdout()
			if output == "json" {
				return writeJSON(out, engine.Snapshot())
			}
			if err := printTable(out, engine.Delegate().TableFields(), engine.Traces()); err != nil {
				return err
			}
			fmt.Fprintf(out, "\npage %d/%d, %s traces\n", engine.Page(), engine.TotalPages(), format.Count(int64(engine.Total())))
			return nil
		},
	}
	filters.register(cmd.Flags())
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Traces per page (default from TRACING_PAGE_SIZE)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table or json")
	return cmd
}

func newDetailCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "detail <trace-id>",
		Short: "Show one trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := utils.ValidateTraceID(args[0]); err != nil {
				return err
			}
			engine, err := a.newEngine(engineOptions{notifier: stderrNotifier{cmd.ErrOrStderr()}})
			if err != nil {
				return err
			}
			defer engine.Close()

			rec, ok := engine.GetDetail(cmd.Context(), args[0])
			if !ok {
				return fmt.Errorf("failed to fetch trace %s", args[0])
			}
			if output == "json" {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			return printDetail(cmd.OutOrStdout(), rec, engine.Delegate().DetailFields())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text or json")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := a.newEngine(engineOptions{notifier: stderrNotifier{cmd.ErrOrStderr()}})
			if err != nil {
				return err
			}
			defer engine.Close()

			if !engine.FetchStatistics(cmd.Context()) {
				return errors.New("failed to fetch statistics")
			}
			if output == "json" {
				stats, _ := engine.Statistics()
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			return printStatistics(cmd.OutOrStdout(), engine.FormattedStatistics())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table or json")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the live trace feed",
		Long: `Load the first page of traces, then follow new and updated traces on the
push channel until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := filters.validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			engine, err := a.newEngine(engineOptions{live: true, notifier: stderrNotifier{cmd.ErrOrStderr()}})
			if err != nil {
				return err
			}
			defer engine.Close()

			changes := make(chan tracing.Change, 64)
			unsubscribe := engine.Subscribe(func(c tracing.Change) {
				select {
				case changes <- c:
				default:
				}
			})
			defer unsubscribe()

			engine.SetQuery(filters.query)
			if err := engine.SetFilter(llm.FilterStatus, filters.status); err != nil {
				return err
			}
			engine.Initialize(ctx, filters.route())
			if err := printTable(out, engine.Delegate().TableFields(), engine.Traces()); err != nil {
				return err
			}

			w := watcher{fields: engine.Delegate().TableFields()}
			for {
				select {
				case <-ctx.Done():
					return nil
				case c := <-changes:
					switch c {
					case tracing.ChangePage:
						w.page(out, engine.Traces(), engine.Total())
					case tracing.ChangeConnection:
						w.connection(out, engine.State(), engine.ReconnectExhausted())
					}
				}
			}
		},
	}
	filters.register(cmd.Flags())
	return cmd
}

// watcher prints one line per visible change of the feed.
type watcher struct {
	fields  []tracing.Field[llm.Trace]
	total   int
	rows    map[string]string
	state   tracing.ConnectionState
	started bool
}

func (w *watcher) page(out io.Writer, items []llm.Trace, total int) {
	if w.rows == nil {
		w.rows = make(map[string]string)
		for _, rec := range items {
			w.rows[rec.TraceID] = renderRow(w.fields, rec)
		}
		w.total = total
		return
	}
	visible := make(map[string]string, len(items))
	for _, rec := range items {
		row := renderRow(w.fields, rec)
		prev, seen := w.rows[rec.TraceID]
		switch {
		case !seen:
			fmt.Fprintf(out, "%s + %s\n", stamp(), row)
		case prev != row:
			fmt.Fprintf(out, "%s ~ %s\n", stamp(), row)
		}
		visible[rec.TraceID] = row
	}
	w.rows = visible
	if total != w.total {
		fmt.Fprintf(out, "%s   total %s\n", stamp(), format.Count(int64(total)))
		w.total = total
	}
}

func (w *watcher) connection(out io.Writer, state tracing.ConnectionState, exhausted bool) {
	if w.started && state == w.state {
		return
	}
	w.started = true
	w.state = state
	msg := state.String()
	if exhausted {
		msg += " (reconnect limit reached)"
	}
	fmt.Fprintf(out, "%s   feed %s\n", stamp(), msg)
}

func stamp() string {
	return time.Now().Format("15:04:05")
}
