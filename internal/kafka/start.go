package kafka

import (
	"context"

	log "github.com/nguyentranbao-ct/chat-engine/pkg/logger/logctx"
	"go.uber.org/fx"
)

// StartConsumer runs consumer for the lifetime of the application.
func StartConsumer(lc fx.Lifecycle, sd fx.Shutdowner, consumer Consumer) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := consumer.Start(ctx); err != nil {
					log.Errorw(ctx, "kafka consumer stopped", "error", err)
					sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			return consumer.Stop(stopCtx)
		},
	})
}
