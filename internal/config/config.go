package config

import (
	"errors"
	"fmt"
	"time"

	"botprobe/lib/configutil"
)

// DefaultName is the config file read when --config is not given.
const DefaultName = "botprobe.json5"

// Config holds every value that used to be a process-wide constant of the test script,
// durations are strings (ex. "1.2s").
type Config struct {
	BotUrl string `json:"bot_url"`
	Phone  string `json:"phone"`

	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`

	EvalCasesPath  string `json:"eval_cases_path"`
	EvalReportPath string `json:"eval_report_path"`

	Timeout        string `json:"timeout"`
	Delay          string `json:"delay"`
	MaxReplyLength int    `json:"max_reply_length"`
	HtmlErrorText  bool   `json:"html_error_text"`

	// optional, empty disables the feature
	HistoryDb string `json:"history_db"`
	DumpDir   string `json:"dump_dir"`
}

func Defaults() Config {
	return Config{
		BotUrl:         "https://beauty-bot-gemini-adk.onrender.com",
		Phone:          "19999999999",
		InputPath:      "beautybot_test_scenarios.txt",
		OutputPath:     "test_results_gemini_bot.csv",
		EvalCasesPath:  "eval.jsonl",
		EvalReportPath: "eval_results.json",
		Timeout:        "15s",
		Delay:          "1.2s",
		MaxReplyLength: 300,
	}
}

// Load reads `name` (and its .local override) over Defaults().
func Load(name string) (Config, error) {
	cfg, err := configutil.ReadConfigWithDefaults(name, Defaults())
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", name, err)
	}
	return cfg, nil
}

func (c Config) TimeoutDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}

func (c Config) DelayDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Delay)
	if err != nil {
		return 0, fmt.Errorf("invalid delay %q: %w", c.Delay, err)
	}
	return d, nil
}

// Validate returns every problem with the config joined together.
func (c Config) Validate() error {
	var errs []error
	if c.BotUrl == "" {
		errs = append(errs, errors.New("bot_url must not be empty"))
	}
	timeout, err := c.TimeoutDuration()
	if err != nil {
		errs = append(errs, err)
	} else if timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", timeout))
	}
	delay, err := c.DelayDuration()
	if err != nil {
		errs = append(errs, err)
	} else if delay < 0 {
		errs = append(errs, fmt.Errorf("delay must not be negative, got %s", delay))
	}
	if c.MaxReplyLength <= 0 {
		errs = append(errs, fmt.Errorf("max_reply_length must be positive, got %d", c.MaxReplyLength))
	}
	return errors.Join(errs...)
}
