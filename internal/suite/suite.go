// Package suite loads the messages that are replayed against the bot.
package suite

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Case is one input message paired with its 1-based position.
type Case struct {
	Index int
	Input string
}

// EvalCase is a Case with the reply the bot is expected to give.
type EvalCase struct {
	Case
	Expected string
}

// ReadInputs returns the non-blank, whitespace trimmed lines of r in order.
func ReadInputs(r io.Reader) ([]string, error) {
	var inputs []string
	scanner := bufio.NewScanner(r)
	// single messages can be long, don't stop at bufio's 64KiB default
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		inputs = append(inputs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return inputs, nil
}

// LoadInputs reads the input file at `path`, see ReadInputs.
func LoadInputs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load inputs: %w", err)
	}
	defer f.Close()

	inputs, err := ReadInputs(f)
	if err != nil {
		return nil, fmt.Errorf("load inputs: read %s: %w", path, err)
	}
	return inputs, nil
}

// Cases numbers `inputs` starting at 1.
func Cases(inputs []string) []Case {
	cases := make([]Case, len(inputs))
	for i, input := range inputs {
		cases[i] = Case{Index: i + 1, Input: input}
	}
	return cases
}

type evalLine struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// ReadEvalCases parses JSON lines of {"input": ..., "expected": ...}, lines that are not
// valid JSON or have no input are skipped with a warning.
func ReadEvalCases(r io.Reader) ([]EvalCase, error) {
	var cases []EvalCase
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var parsed evalLine
		err := json.Unmarshal(line, &parsed)
		if err != nil {
			slog.Warn("skipping invalid eval line", "line", lineNo, "err", err)
			continue
		}
		parsed.Input = strings.TrimSpace(parsed.Input)
		if parsed.Input == "" {
			slog.Warn("skipping eval line without input", "line", lineNo)
			continue
		}

		cases = append(cases, EvalCase{
			Case:     Case{Index: len(cases) + 1, Input: parsed.Input},
			Expected: parsed.Expected,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cases, nil
}

// LoadEvalCases reads the JSONL file at `path`, see ReadEvalCases.
func LoadEvalCases(path string) ([]EvalCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load eval cases: %w", err)
	}
	defer f.Close()

	cases, err := ReadEvalCases(f)
	if err != nil {
		return nil, fmt.Errorf("load eval cases: read %s: %w", path, err)
	}
	return cases, nil
}
