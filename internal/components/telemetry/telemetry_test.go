package telemetry

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := NewRecordingAPI()
	scoped := NewScopedAPI("runner", rec)

	scoped.ReportBroken("write-row", errors.New("disk full"))
	scoped.ReportWarning("interrupted", 3)
	scoped.ReportDebug("sent", "hola")
	scoped.ReportCount("rows", 4)

	all := rec.Reports("")
	require.Len(t, all, 4)
	require.Equal(t, "runner: write-row", all[0].ID)
	require.Equal(t, "broken", all[0].Kind)
	require.Equal(t, "runner: interrupted", all[1].ID)
	require.Equal(t, []any{int64(4)}, all[3].Params)

	require.True(t, rec.HasBroken("write-row"))
	require.False(t, rec.HasBroken("interrupted"))
	require.Len(t, rec.Reports("debug"), 1)
}

func TestSlogAPI(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tel := NewSlogAPI(logger)

	tel.ReportBroken("history.add-result", errors.New("locked"), 3)
	require.Contains(t, buf.String(), "level=ERROR")
	require.Contains(t, buf.String(), "id=history.add-result")
	require.Contains(t, buf.String(), "params.0=locked")
	require.Contains(t, buf.String(), "params.1=3")
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	rec := NewRecordingAPI()
	client := resty.New()
	InstrumentResty(client, rec)

	_, err := client.R().Get(server.URL)
	require.NoError(t, err)
	debug := rec.Reports("debug")
	require.Len(t, debug, 2)
	require.Equal(t, report_resty_request, debug[0].ID)
	require.Equal(t, report_resty_response, debug[1].ID)

	_, err = client.R().Get("http://127.0.0.1:1/unreachable")
	require.Error(t, err)
	warnings := rec.Reports("warning")
	require.Len(t, warnings, 1)
	require.Equal(t, report_resty_error, warnings[0].ID)
	require.Empty(t, rec.Reports("broken"))
}
