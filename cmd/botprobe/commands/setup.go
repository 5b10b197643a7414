package commands

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"botprobe/internal/botclient"
	"botprobe/internal/components/chrono"
	"botprobe/internal/components/telemetry"
	"botprobe/internal/config"
	"botprobe/internal/extract"
	"botprobe/internal/history"
	"botprobe/internal/runner"
	"botprobe/lib/restyutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// botFlags are the overrides shared by every command that talks to the bot,
// a flag only replaces the config value when it was given explicitly.
type botFlags struct {
	url       *string
	phone     *string
	timeout   *string
	delay     *string
	maxReply  *int
	historyDb *string
	dumpDir   *string
}

func addBotFlags(cmd *cobra.Command) botFlags {
	defaults := config.Defaults()
	return botFlags{
		url:       cmd.Flags().String("url", defaults.BotUrl, "The chatbot endpoint messages are posted to."),
		phone:     cmd.Flags().String("phone", defaults.Phone, "The phone number sent along with every message."),
		timeout:   cmd.Flags().String("timeout", defaults.Timeout, "How long to wait for a single reply."),
		delay:     cmd.Flags().String("delay", defaults.Delay, "Minimum time between two requests."),
		maxReply:  cmd.Flags().Int("max-reply", defaults.MaxReplyLength, "Replies are cut to this many characters."),
		historyDb: cmd.Flags().String("db", "", "Record the run into this sqlite database."),
		dumpDir:   cmd.Flags().String("dump-dir", "", "Write every request/response exchange into this directory."),
	}
}

func (f botFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.BotUrl = *f.url
	}
	if flags.Changed("phone") {
		cfg.Phone = *f.phone
	}
	if flags.Changed("timeout") {
		cfg.Timeout = *f.timeout
	}
	if flags.Changed("delay") {
		cfg.Delay = *f.delay
	}
	if flags.Changed("max-reply") {
		cfg.MaxReplyLength = *f.maxReply
	}
	if flags.Changed("db") {
		cfg.HistoryDb = *f.historyDb
	}
	if flags.Changed("dump-dir") {
		cfg.DumpDir = *f.dumpDir
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// session is everything a command needs to send cases to the bot.
type session struct {
	runner  *runner.Runner
	history *history.Store
}

func (s session) Close() {
	if s.history == nil {
		return
	}
	err := s.history.Close()
	if err != nil {
		slog.Warn("failed to close history db", "err", err)
	}
}

func newSession(cfg config.Config, opts runner.Options) (session, error) {
	err := cfg.Validate()
	if err != nil {
		return session{}, fmt.Errorf("invalid config: %w", err)
	}
	timeout, _ := cfg.TimeoutDuration()
	delay, _ := cfg.DelayDuration()

	tel := telemetry.NewSlogAPI(nil)

	clientOpts := botclient.Options{
		Url:     cfg.BotUrl,
		Timeout: timeout,
		Delay:   delay,
	}
	if cfg.DumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(cfg.DumpDir)
		if err != nil {
			return session{}, fmt.Errorf("prepare dump dir: %w", err)
		}
		clientOpts.Dump = output
	}
	client, err := botclient.New(clientOpts, tel)
	if err != nil {
		return session{}, err
	}

	opts.Phone = cfg.Phone
	opts.BotUrl = cfg.BotUrl
	opts.Extract = extract.Options{
		MaxLength:     cfg.MaxReplyLength,
		HtmlErrorText: cfg.HtmlErrorText,
	}

	s := session{
		runner: runner.New(client, opts, tel, chrono.NewStandardImpl(nil)),
	}
	if cfg.HistoryDb != "" {
		store, err := history.Open(cfg.HistoryDb)
		if err != nil {
			return session{}, err
		}
		s.history = &store
		s.runner.WithHistory(store)
	}
	return s, nil
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func renderSummary(w io.Writer, summary runner.Summary, outputPath string) {
	t := newTable(w)
	t.SetTitle("Run summary")
	t.AppendRow(table.Row{"Rows", summary.Total()})
	for _, class := range []extract.Class{extract.Ok, extract.HttpError, extract.NetworkError, extract.ParseError} {
		t.AppendRow(table.Row{class.String(), summary.Counts[class]})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Duration", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond).String()})
	t.AppendRow(table.Row{"Output", outputPath})
	if summary.Interrupted {
		t.AppendRow(table.Row{"Interrupted", "yes"})
	}
	t.Render()
}
