// Package evaluate replays labelled cases against the bot and scores each reply
// against the expected one.
package evaluate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"botprobe/internal/components/assert"
	"botprobe/internal/components/chrono"
	"botprobe/internal/extract"
	"botprobe/internal/runner"
	"botprobe/internal/suite"
)

// Result is the score of a single case.
type Result struct {
	Index      int     `json:"index"`
	Input      string  `json:"input"`
	Expected   string  `json:"expected"`
	Predicted  string  `json:"predicted"`
	Status     string  `json:"status"`
	ExactMatch bool    `json:"exactMatch"`
	Similarity float64 `json:"similarity"`
	Error      string  `json:"error,omitempty"`
}

type Summary struct {
	TotalExamples int `json:"totalExamples"`
	ExactMatches  int `json:"exactMatches"`
	// ExactMatchAccuracy and AverageSimilarity are percentages.
	ExactMatchAccuracy float64   `json:"exactMatchAccuracy"`
	AverageSimilarity  float64   `json:"averageSimilarity"`
	Timestamp          time.Time `json:"timestamp"`
	Interrupted        bool      `json:"interrupted,omitempty"`
}

type Report struct {
	Summary Summary  `json:"summary"`
	Results []Result `json:"results"`
}

type Evaluator struct {
	runner *runner.Runner
	clock  chrono.API
}

func New(r *runner.Runner, clock chrono.API) Evaluator {
	assert.NotNil(r)
	assert.NotNil(clock)
	return Evaluator{runner: r, clock: clock}
}

// Score turns a probe result into a scored result, a reply that is not a
// successful one is an error and scores 0.
func Score(c suite.EvalCase, res runner.Result) Result {
	out := Result{
		Index:    c.Index,
		Input:    c.Input,
		Expected: c.Expected,
		Status:   res.Status,
	}
	// the report is scored on the whole reply, only the results table is bounded
	if res.Class != extract.Ok {
		out.Predicted = fmt.Sprintf("ERROR: %s", res.FullReply)
		out.Error = fmt.Sprintf("%s: %s", res.Class, res.FullReply)
		return out
	}
	out.Predicted = res.FullReply
	out.ExactMatch = ExactMatch(res.FullReply, c.Expected)
	out.Similarity = Similarity(res.FullReply, c.Expected)
	return out
}

// Summarize computes the aggregate scores of `results`, an empty set scores 0.
func Summarize(results []Result, timestamp time.Time) Summary {
	summary := Summary{
		TotalExamples: len(results),
		Timestamp:     timestamp,
	}
	if len(results) == 0 {
		return summary
	}

	totalSimilarity := 0.0
	for _, r := range results {
		if r.ExactMatch {
			summary.ExactMatches++
		}
		totalSimilarity += r.Similarity
	}
	summary.ExactMatchAccuracy = float64(summary.ExactMatches) / float64(len(results)) * 100
	summary.AverageSimilarity = totalSimilarity / float64(len(results)) * 100
	return summary
}

// Run sends every case in order and scores the replies.
func (e Evaluator) Run(ctx context.Context, cases []suite.EvalCase) (Report, error) {
	plain := make([]suite.Case, len(cases))
	byIndex := make(map[int]suite.EvalCase, len(cases))
	for i, c := range cases {
		plain[i] = c.Case
		byIndex[c.Index] = c
	}

	progress := e.runner.Progress()
	var results []Result
	summary, err := e.runner.ForEach(ctx, plain, func(res runner.Result) error {
		scored := Score(byIndex[res.Index], res)
		results = append(results, scored)

		fmt.Fprintf(progress, "[%d/%d] %s — %s\n", res.Index, len(cases), res.Status, res.Input)
		switch {
		case scored.ExactMatch:
			fmt.Fprintln(progress, "      exact match")
		case scored.Error != "":
			fmt.Fprintf(progress, "      %s: %s\n", res.Class, res.Reply)
		default:
			fmt.Fprintf(progress, "      no match, similarity %.1f%%\n", scored.Similarity*100)
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Summary: Summarize(results, e.clock.Now()),
		Results: results,
	}
	report.Summary.Interrupted = summary.Interrupted
	if report.Results == nil {
		report.Results = []Result{}
	}
	return report, nil
}

// WriteReport writes `report` as indented JSON to `path`, replacing any existing file.
func WriteReport(path string, report Report) error {
	contents, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	err = os.WriteFile(path, append(contents, '\n'), 0644)
	if err != nil {
		return fmt.Errorf("write eval report: %w", err)
	}
	return nil
}
