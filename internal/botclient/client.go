// Package botclient sends test messages to the chatbot endpoint under test.
package botclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"botprobe/internal/components/assert"
	"botprobe/internal/components/telemetry"
	"botprobe/lib/restyutil"
	libtelemetry "botprobe/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// ErrorStatus is recorded in place of a status code when no response was received.
const ErrorStatus = "ERROR"

const report_client_send = "client.send"

// Message is the JSON body posted to the bot.
type Message struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
}

// Outcome is the result of a single call, it is never an error: failures are data.
type Outcome struct {
	// StatusCode is 0 when Err is set.
	StatusCode  int
	Body        string
	ContentType string
	Err         error
	Duration    time.Duration
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Status is the value of the status column, the status code or ErrorStatus.
func (o Outcome) Status() string {
	if o.Failed() {
		return ErrorStatus
	}
	return strconv.Itoa(o.StatusCode)
}

type Options struct {
	Url     string
	Timeout time.Duration
	// Delay is the minimum time between the start of two requests, 0 disables it.
	Delay time.Duration
	// Dump receives a rendering of every exchange, it can be nil.
	Dump restyutil.InstrumentOutput
}

type Client struct {
	url  string
	http *resty.Client
	tel  telemetry.API
}

func New(opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	if opts.Url == "" {
		return nil, errors.New("bot client: url is required")
	}
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("bot client: timeout must be positive, got %s", opts.Timeout)
	}
	if opts.Delay < 0 {
		return nil, fmt.Errorf("bot client: delay must not be negative, got %s", opts.Delay)
	}

	tel = telemetry.NewScopedAPI("bot_client", tel)

	httpClient := resty.New()
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetHeader("Content-Type", "application/json")
	httpClient.SetHeader("Accept", "application/json")

	if opts.Delay > 0 {
		// one request per delay, burst 1 means the first request goes out immediately
		limiter := rate.NewLimiter(rate.Every(opts.Delay), 1)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel)
	libtelemetry.InstrumentResty(httpClient, "botprobe/botclient")
	restyutil.InstrumentClient(httpClient, opts.Dump)

	return &Client{
		url:  opts.Url,
		http: httpClient,
		tel:  tel,
	}, nil
}

// Send posts {phone, text} to the bot, any transport failure (including the timeout)
// is returned inside the Outcome.
func (c *Client) Send(ctx context.Context, phone, text string) Outcome {
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(Message{Phone: phone, Text: text}).
		Post(c.url)
	duration := roundTrip(res)

	if err != nil {
		if err.Error() == "" {
			err = errors.New("request failed")
		}
		c.tel.ReportDebug(report_client_send, "failed", err)
		return Outcome{Err: err, Body: err.Error(), Duration: duration}
	}

	return Outcome{
		StatusCode:  res.StatusCode(),
		Body:        res.String(),
		ContentType: res.Header().Get("Content-Type"),
		Duration:    duration,
	}
}

// roundTrip is the time spent on the wire, it starts after the before-request
// hooks so the wait on the limiter is not counted.
func roundTrip(res *resty.Response) time.Duration {
	if res == nil || res.Request == nil || res.Request.Time.IsZero() {
		return 0
	}
	return res.Time()
}
