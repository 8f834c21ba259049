package main

import (
	"context"
	"log/slog"
	"time"

	"akiclient/cmd/akinator-cli/commands"
	"akiclient/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)

	tel, err := telemetry.SetupFromEnv(context.Background(), "akinator-cli")
	if err != nil {
		slog.Warn("telemetry is disabled", "err", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		err := tel.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	}()

	commands.ExecuteContext(context.Background())
}
