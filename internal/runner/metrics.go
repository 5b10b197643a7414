package runner

import (
	"botprobe/lib/telemetry"

	"go.opentelemetry.io/otel/metric"
)

var tracer = telemetry.Tracer("botprobe/runner")
var meter = telemetry.Meter("botprobe/runner")

var requestCounter, _ = meter.Int64Counter(
	"botprobe.requests",
	metric.WithDescription("requests sent to the bot, by outcome class"),
)
var requestDuration, _ = meter.Float64Histogram(
	"botprobe.request.duration",
	metric.WithDescription("time until the bot responded or the request failed"),
	metric.WithUnit("s"),
)
