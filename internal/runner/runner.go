// Package runner replays test cases against the bot one at a time and records
// exactly one result row per case, in order.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"botprobe/internal/botclient"
	"botprobe/internal/components/assert"
	"botprobe/internal/components/chrono"
	"botprobe/internal/components/telemetry"
	"botprobe/internal/extract"
	"botprobe/internal/history"
	"botprobe/internal/resultfile"
	"botprobe/internal/suite"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_runner_write_row   = "runner.write-row"
	report_history_begin      = "history.begin-run"
	report_history_add        = "history.add-result"
	report_history_finish     = "history.finish-run"
	report_runner_interrupted = "runner.interrupted"
	report_runner_outcome     = "runner.outcome"
)

// Sender is anything that can deliver a message to the bot, *botclient.Client in production.
type Sender interface {
	Send(ctx context.Context, phone, text string) botclient.Outcome
}

// RowWriter receives the rows of a run, *resultfile.Writer in production.
type RowWriter interface {
	WriteRow(row resultfile.Row) error
}

// History is where runs are recorded when enabled, history.Store in production.
type History interface {
	BeginRun(ctx context.Context, run history.Run) (int64, error)
	AddResult(ctx context.Context, result history.Result) error
	FinishRun(ctx context.Context, runID int64, finishedAt time.Time, total, ok, failed int) error
}

type Options struct {
	Phone   string
	Extract extract.Options

	// Progress receives one line per row, nil means stdout.
	Progress io.Writer

	// only used to describe the run in the history
	Kind       string
	BotUrl     string
	InputPath  string
	OutputPath string
}

// Result is a row along with how it came to be.
type Result struct {
	resultfile.Row
	// FullReply is Row.Reply before it was bounded for the results table.
	FullReply string
	Class     extract.Class
	Duration  time.Duration
}

type Summary struct {
	Results    []Result
	Counts     map[extract.Class]int
	StartedAt  time.Time
	FinishedAt time.Time
	// Interrupted is set when the context was cancelled before every case ran.
	Interrupted bool
}

func (s Summary) Total() int {
	return len(s.Results)
}

// Failed counts every row that is not extract.Ok.
func (s Summary) Failed() int {
	return s.Total() - s.Counts[extract.Ok]
}

type Runner struct {
	sender  Sender
	opts    Options
	tel     telemetry.API
	clock   chrono.API
	history History
}

func New(sender Sender, opts Options, tel telemetry.API, clock chrono.API) *Runner {
	assert.NotNil(sender)
	assert.NotNil(tel)
	assert.NotNil(clock)

	if opts.Progress == nil {
		opts.Progress = os.Stdout
	}
	if opts.Kind == "" {
		opts.Kind = "run"
	}
	return &Runner{
		sender: sender,
		opts:   opts,
		tel:    telemetry.NewScopedAPI("runner", tel),
		clock:  clock,
	}
}

// WithHistory records every run made by the runner into h.
func (r *Runner) WithHistory(h History) *Runner {
	r.history = h
	return r
}

// Progress returns where progress lines are written.
func (r *Runner) Progress() io.Writer {
	return r.opts.Progress
}

// Probe sends a single case and turns the outcome into a row.
func (r *Runner) Probe(ctx context.Context, c suite.Case) Result {
	ctx, span := tracer.Start(ctx, "probe", trace.WithAttributes(
		attribute.Int("case.index", c.Index),
	))
	defer span.End()

	outcome := r.sender.Send(ctx, r.opts.Phone, c.Input)

	var extraction extract.Extraction
	switch {
	case outcome.Failed():
		extraction = r.opts.Extract.Failure(outcome.Err.Error())
		span.RecordError(outcome.Err)
		span.SetStatus(codes.Error, "request failed")
	case outcome.StatusCode != 200:
		extraction = r.opts.Extract.ErrorPage(outcome.Body, outcome.ContentType)
		span.SetStatus(codes.Error, fmt.Sprintf("status %d", outcome.StatusCode))
	default:
		extraction = r.opts.Extract.Success(outcome.Body)
		if extraction.Class == extract.ParseError {
			r.tel.ReportWarning(report_runner_outcome, c.Index, extraction.Reply)
		}
	}

	span.SetAttributes(
		attribute.String("case.status", outcome.Status()),
		attribute.String("case.class", extraction.Class.String()),
	)
	classAttr := metric.WithAttributes(attribute.String("outcome", extraction.Class.String()))
	requestCounter.Add(ctx, 1, classAttr)
	requestDuration.Record(ctx, outcome.Duration.Seconds(), classAttr)

	return Result{
		Row: resultfile.Row{
			Index:  c.Index,
			Input:  c.Input,
			Status: outcome.Status(),
			Reply:  extraction.Reply,
		},
		FullReply: extraction.Full,
		Class:     extraction.Class,
		Duration:  outcome.Duration,
	}
}

// PrintProgress writes the one line console summary of a row.
func PrintProgress(w io.Writer, row resultfile.Row) {
	fmt.Fprintf(w, "[%03d] %s — %s\n", row.Index, row.Status, row.Input)
}

type historyRecorder struct {
	history History
	tel     telemetry.API
	runID   int64
}

func (r *Runner) beginHistory(ctx context.Context, startedAt time.Time) *historyRecorder {
	if r.history == nil {
		return nil
	}
	runID, err := r.history.BeginRun(ctx, history.Run{
		Kind:       r.opts.Kind,
		BotUrl:     r.opts.BotUrl,
		InputPath:  r.opts.InputPath,
		OutputPath: r.opts.OutputPath,
		StartedAt:  startedAt,
	})
	if err != nil {
		r.tel.ReportBroken(report_history_begin, err)
		return nil
	}
	return &historyRecorder{history: r.history, tel: r.tel, runID: runID}
}

func (h *historyRecorder) add(ctx context.Context, res Result) {
	if h == nil {
		return
	}
	err := h.history.AddResult(ctx, history.Result{
		RunID:    h.runID,
		Index:    res.Index,
		Input:    res.Input,
		Status:   res.Status,
		Reply:    res.Reply,
		Class:    res.Class.String(),
		Duration: res.Duration,
	})
	if err != nil {
		h.tel.ReportBroken(report_history_add, err, res.Index)
	}
}

func (h *historyRecorder) finish(ctx context.Context, summary Summary) {
	if h == nil || summary.Interrupted {
		return
	}
	err := h.history.FinishRun(ctx, h.runID, summary.FinishedAt, summary.Total(), summary.Counts[extract.Ok], summary.Failed())
	if err != nil {
		h.tel.ReportBroken(report_history_finish, err)
	}
}

// ForEach runs every case in order, calling `handle` with each result. It stops early only
// when ctx is cancelled or `handle` returns an error, per-case failures are results.
func (r *Runner) ForEach(ctx context.Context, cases []suite.Case, handle func(Result) error) (Summary, error) {
	ctx, span := tracer.Start(ctx, r.opts.Kind, trace.WithAttributes(
		attribute.Int("cases", len(cases)),
		attribute.String("bot.url", r.opts.BotUrl),
	))
	defer span.End()

	summary := Summary{
		Counts:    map[extract.Class]int{},
		StartedAt: r.clock.Now(),
	}
	// history writes must survive the cancellation that interrupts the run
	historyCtx := context.WithoutCancel(ctx)
	recorder := r.beginHistory(historyCtx, summary.StartedAt)

	for _, c := range cases {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}

		res := r.Probe(ctx, c)
		// a request cut short by the interruption says nothing about the bot
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}

		err := handle(res)
		if err != nil {
			summary.FinishedAt = r.clock.Now()
			span.RecordError(err)
			span.SetStatus(codes.Error, "stopped")
			return summary, err
		}

		summary.Results = append(summary.Results, res)
		summary.Counts[res.Class]++
		recorder.add(historyCtx, res)
	}

	summary.FinishedAt = r.clock.Now()
	if summary.Interrupted {
		r.tel.ReportWarning(report_runner_interrupted, len(summary.Results), len(cases))
	}
	recorder.finish(historyCtx, summary)

	for class, n := range summary.Counts {
		r.tel.ReportDebug("outcome count", class.String(), n)
	}
	return summary, nil
}

// Run replays `inputs` in order, writing one row per input to `w` and one progress line per row.
func (r *Runner) Run(ctx context.Context, inputs []string, w RowWriter) (Summary, error) {
	assert.NotNil(w)

	return r.ForEach(ctx, suite.Cases(inputs), func(res Result) error {
		err := w.WriteRow(res.Row)
		if err != nil {
			r.tel.ReportBroken(report_runner_write_row, err, res.Index)
			return err
		}
		PrintProgress(r.opts.Progress, res.Row)
		return nil
	})
}
