package runner

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"botprobe/internal/botclient"
	"botprobe/internal/components/chrono"
	"botprobe/internal/components/telemetry"
	"botprobe/internal/extract"
	"botprobe/internal/history"
	"botprobe/internal/resultfile"
	"botprobe/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// scriptedSender answers from a map keyed by message text, unknown messages time out.
type scriptedSender struct {
	replies map[string]botclient.Outcome
	sent    []string
	onSend  func(text string)
}

func (s *scriptedSender) Send(ctx context.Context, phone, text string) botclient.Outcome {
	s.sent = append(s.sent, text)
	if s.onSend != nil {
		s.onSend(text)
	}
	outcome, ok := s.replies[text]
	if !ok {
		return botclient.Outcome{Err: errors.New("context deadline exceeded"), Body: "context deadline exceeded"}
	}
	return outcome
}

func ok(body string) botclient.Outcome {
	return botclient.Outcome{StatusCode: 200, Body: body, Duration: 10 * time.Millisecond}
}

type memoryWriter struct {
	rows []resultfile.Row
	err  error
}

func (m *memoryWriter) WriteRow(row resultfile.Row) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, row)
	return nil
}

func newRunner(sender Sender, progress *bytes.Buffer) (*Runner, *telemetry.RecordingAPI) {
	tel := telemetry.NewRecordingAPI()
	clock := &chrono.FixedImpl{
		Current: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Step:    time.Second,
	}
	return New(sender, Options{Phone: "19999999999", Progress: progress}, tel, clock), tel
}

func TestRunOneRowPerInput(t *testing.T) {
	sender := &scriptedSender{replies: map[string]botclient.Outcome{
		"hola":   ok(`{"response":"Hello there"}`),
		"precio": {StatusCode: 500, Body: "Internal Server Error"},
		"roto":   ok(`{"response": `),
	}}
	var progress bytes.Buffer
	r, tel := newRunner(sender, &progress)
	out := &memoryWriter{}

	summary, err := r.Run(context.Background(), []string{"hola", "precio", "lento", "roto"}, out)
	require.NoError(t, err)

	require.Len(t, out.rows, 4)
	require.Equal(t, resultfile.Row{Index: 1, Input: "hola", Status: "200", Reply: "Hello there"}, out.rows[0])
	require.Equal(t, resultfile.Row{Index: 2, Input: "precio", Status: "500", Reply: "Internal Server Error"}, out.rows[1])
	require.Equal(t, "ERROR", out.rows[2].Status)
	require.Equal(t, "context deadline exceeded", out.rows[2].Reply)
	require.Equal(t, "200", out.rows[3].Status)
	require.True(t, strings.HasPrefix(out.rows[3].Reply, "[parse error: "))

	for i, row := range out.rows {
		require.Equal(t, i+1, row.Index)
	}
	require.Equal(t, []string{"hola", "precio", "lento", "roto"}, sender.sent)

	require.Equal(t, 4, summary.Total())
	expectedCounts := map[extract.Class]int{
		extract.Ok:           1,
		extract.HttpError:    1,
		extract.NetworkError: 1,
		extract.ParseError:   1,
	}
	if diff := cmp.Diff(expectedCounts, summary.Counts); diff != "" {
		t.Fatalf("counts (-want +got):\n%s", diff)
	}
	require.Equal(t, 3, summary.Failed())
	require.False(t, summary.Interrupted)
	require.True(t, summary.FinishedAt.After(summary.StartedAt))

	lines := strings.Split(strings.TrimSpace(progress.String()), "\n")
	require.Equal(t, []string{
		"[001] 200 — hola",
		"[002] 500 — precio",
		"[003] ERROR — lento",
		"[004] 200 — roto",
	}, lines)

	require.Empty(t, tel.Reports("broken"))
}

func TestRunKeepsFullReply(t *testing.T) {
	long := strings.Repeat("abcdefghij", 44)
	sender := &scriptedSender{replies: map[string]botclient.Outcome{
		"largo": ok(`{"response":"` + long + `"}`),
	}}
	r, _ := newRunner(sender, &bytes.Buffer{})
	out := &memoryWriter{}

	summary, err := r.Run(context.Background(), []string{"largo"}, out)
	require.NoError(t, err)

	require.Len(t, summary.Results, 1)
	require.Equal(t, long[:300], out.rows[0].Reply)
	require.Equal(t, long[:300], summary.Results[0].Reply)
	require.Equal(t, long, summary.Results[0].FullReply)
}

func TestRunNoInputs(t *testing.T) {
	var progress bytes.Buffer
	r, _ := newRunner(&scriptedSender{}, &progress)
	out := &memoryWriter{}

	summary, err := r.Run(context.Background(), nil, out)
	require.NoError(t, err)
	require.Empty(t, out.rows)
	require.Equal(t, 0, summary.Total())
	require.Empty(t, progress.String())
}

func TestRunWriteFailureStops(t *testing.T) {
	sender := &scriptedSender{replies: map[string]botclient.Outcome{"a": ok(`{"response":"x"}`)}}
	var progress bytes.Buffer
	r, tel := newRunner(sender, &progress)

	_, err := r.Run(context.Background(), []string{"a", "a"}, &memoryWriter{err: errors.New("disk full")})
	require.ErrorContains(t, err, "disk full")
	require.Len(t, sender.sent, 1)
	require.True(t, tel.HasBroken(report_runner_write_row))
}

func TestRunInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := &scriptedSender{replies: map[string]botclient.Outcome{
		"a": ok(`{"response":"1"}`),
		"b": ok(`{"response":"2"}`),
		"c": ok(`{"response":"3"}`),
	}}
	sender.onSend = func(text string) {
		if text == "b" {
			cancel()
		}
	}
	var progress bytes.Buffer
	r, tel := newRunner(sender, &progress)
	out := &memoryWriter{}

	summary, err := r.Run(ctx, []string{"a", "b", "c"}, out)
	require.NoError(t, err)
	require.True(t, summary.Interrupted)
	// the row in flight when the run was cancelled is dropped
	require.Len(t, out.rows, 1)
	require.Equal(t, []string{"a", "b"}, sender.sent)
	require.NotEmpty(t, tel.Reports("warning"))
}

func TestRunRecordsHistory(t *testing.T) {
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	sender := &scriptedSender{replies: map[string]botclient.Outcome{"hola": ok(`{"response":"hi"}`)}}
	var progress bytes.Buffer
	r, tel := newRunner(sender, &progress)
	r.WithHistory(store)

	_, err = r.Run(context.Background(), []string{"hola", "nada"}, &memoryWriter{})
	require.NoError(t, err)
	require.Empty(t, tel.Reports("broken"))

	runs, err := store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, 2, runs[0].Total)
	require.Equal(t, 1, runs[0].Ok)
	require.Equal(t, 1, runs[0].Failed)
	require.False(t, runs[0].FinishedAt.IsZero())

	results, err := store.GetResults(context.Background(), runs[0].ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "ok", results[0].Class)
	require.Equal(t, "network_error", results[1].Class)
	require.Equal(t, "ERROR", results[1].Status)
}

func TestRunAgainstBot(t *testing.T) {
	testutil.SetupTelemetry(t, "runner")

	bot := testutil.NewFakeBot(t, func(w http.ResponseWriter, r *http.Request, msg testutil.Message) {
		switch msg.Text {
		case "slow":
			testutil.Hang(w, r, msg)
		case "plain":
			testutil.Respond(w, http.StatusOK, "text/plain", "just text\nover lines")
		default:
			testutil.Echo(w, r, msg)
		}
	})
	client, err := botclient.New(botclient.Options{
		Url:     bot.URL,
		Timeout: 200 * time.Millisecond,
	}, telemetry.NewRecordingAPI())
	require.NoError(t, err)

	var progress bytes.Buffer
	r, _ := newRunner(client, &progress)

	path := filepath.Join(t.TempDir(), "results.csv")
	run := func(inputs []string) []resultfile.Row {
		out, err := resultfile.Create(path)
		require.NoError(t, err)
		_, err = r.Run(context.Background(), inputs, out)
		require.NoError(t, err)
		require.NoError(t, out.Close())

		rows, err := resultfile.Read(path)
		require.NoError(t, err)
		return rows
	}

	rows := run([]string{"hola", "slow", "plain", "adios"})
	expected := []resultfile.Row{
		{Index: 1, Input: "hola", Status: "200", Reply: "echo: hola"},
		{Index: 2, Input: "slow", Status: "ERROR"},
		{Index: 3, Input: "plain", Status: "200", Reply: "just text over lines"},
		{Index: 4, Input: "adios", Status: "200", Reply: "echo: adios"},
	}
	ignoreErrorReply := cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".Reply"
	}, cmp.Comparer(func(a, b string) bool {
		return a == b || a == "" || b == ""
	}))
	if diff := cmp.Diff(expected, rows, ignoreErrorReply); diff != "" {
		t.Fatalf("rows (-want +got):\n%s", diff)
	}
	require.NotEmpty(t, rows[1].Reply)

	// a second run replaces the table rather than appending to it
	rows = run([]string{"otra vez"})
	require.Len(t, rows, 1)
	require.Equal(t, "echo: otra vez", rows[0].Reply)
}

type failingHistory struct{}

func (failingHistory) BeginRun(context.Context, history.Run) (int64, error) { return 1, nil }
func (failingHistory) AddResult(context.Context, history.Result) error {
	return errors.New("database is locked")
}
func (failingHistory) FinishRun(context.Context, int64, time.Time, int, int, int) error { return nil }

func TestRunHistoryFailureIsNotFatal(t *testing.T) {
	sender := &scriptedSender{replies: map[string]botclient.Outcome{"a": ok(`{"response":"x"}`)}}
	var progress bytes.Buffer
	r, tel := newRunner(sender, &progress)
	r.WithHistory(failingHistory{})
	out := &memoryWriter{}

	summary, err := r.Run(context.Background(), []string{"a", "b"}, out)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Total())
	require.Len(t, out.rows, 2)
	require.True(t, tel.HasBroken(report_history_add))
}
