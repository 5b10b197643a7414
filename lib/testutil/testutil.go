package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"botprobe/lib/telemetry"
)

// SetupTelemetry installs telemetry for the test binary (once per name) and
// shuts it down when the test ends.
func SetupTelemetry(t testing.TB, name string) {
	cleanup := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", name))
	t.Cleanup(cleanup)
}

// Message is a decoded request received by a FakeBot.
type Message struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`

	ContentType string    `json:"-"`
	ReceivedAt  time.Time `json:"-"`
}

// Handler answers a single message.
type Handler func(w http.ResponseWriter, r *http.Request, msg Message)

// FakeBot is an httptest server standing in for the chatbot endpoint.
type FakeBot struct {
	*httptest.Server

	mutex    sync.Mutex
	received []Message
}

func NewFakeBot(t testing.TB, handler Handler) *FakeBot {
	bot := &FakeBot{}
	bot.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		msg := Message{
			ContentType: r.Header.Get("Content-Type"),
			ReceivedAt:  time.Now(),
		}
		err := json.NewDecoder(r.Body).Decode(&msg)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		bot.mutex.Lock()
		bot.received = append(bot.received, msg)
		bot.mutex.Unlock()

		handler(w, r, msg)
	}))
	t.Cleanup(bot.Close)
	return bot
}

// Received returns every message received so far, in order.
func (b *FakeBot) Received() []Message {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	out := make([]Message, len(b.received))
	copy(out, b.received)
	return out
}

// Respond writes `body` with the given status and content type.
func Respond(w http.ResponseWriter, status int, contentType, body string) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(status)
	w.Write([]byte(body))
}

// Echo replies {"response": "echo: <text>"} to every message.
func Echo(w http.ResponseWriter, _ *http.Request, msg Message) {
	body, _ := json.Marshal(map[string]string{"response": "echo: " + msg.Text})
	Respond(w, http.StatusOK, "application/json", string(body))
}

// Hang never answers, it returns once the client gives up.
func Hang(w http.ResponseWriter, r *http.Request, _ Message) {
	<-r.Context().Done()
}
