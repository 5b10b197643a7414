package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestInstrumentClientDumpsExchanges(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"hi"}`))
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "dump")
	require.NoError(t, os.MkdirAll(dir, 0777))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.txt"), []byte("old"), 0600))

	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	require.Equal(t, dir, output.Directory())
	_, err = os.Stat(filepath.Join(dir, "stale.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)

	client := resty.New()
	InstrumentClient(client, output)

	_, err = client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"phone": "1", "text": "hola"}).
		Post(server.URL)
	require.NoError(t, err)

	_, err = client.R().Post("http://127.0.0.1:1/unreachable")
	require.Error(t, err)

	first, err := os.ReadFile(filepath.Join(dir, "0001.txt"))
	require.NoError(t, err)
	require.Contains(t, string(first), "---- REQUEST ----")
	require.Contains(t, string(first), "POST "+server.URL)
	require.Contains(t, string(first), `"text":"hola"`)
	require.Contains(t, string(first), "---- RESPONSE ----")
	require.Contains(t, string(first), `{"response":"hi"}`)

	second, err := os.ReadFile(filepath.Join(dir, "0002.txt"))
	require.NoError(t, err)
	require.Contains(t, string(second), "---- ERROR ----")
}

func TestInstrumentClientNilOutput(t *testing.T) {
	client := resty.New()
	InstrumentClient(client, nil)
}

func TestFormatHeadersSorted(t *testing.T) {
	headers := http.Header{}
	headers.Add("X-B", "2")
	headers.Add("X-A", "1")
	headers.Add("X-A", "3")
	require.Equal(t, "X-A: 1\nX-A: 3\nX-B: 2", formatHeaders(headers))
}
