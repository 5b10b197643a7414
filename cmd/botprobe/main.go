package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"botprobe/cmd/botprobe/commands"
	"botprobe/lib/serviceutil"
	"botprobe/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext(context.Background())

	tel, err := telemetry.SetupFromEnv(ctx, "botprobe")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	if tel.Enabled() {
		telemetry.InstrumentPerfStats(ctx, 5*time.Second)
	}

	err = commands.ExecuteContext(ctx)

	shutdownErr := tel.Shutdown(context.Background())
	if shutdownErr != nil {
		slog.Warn("failed to flush telemetry", "err", shutdownErr)
	}
	if err != nil {
		os.Exit(1)
	}
}
