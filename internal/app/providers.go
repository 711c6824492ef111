package app

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/chat-engine/internal/config"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/notification"
	"github.com/nguyentranbao-ct/chat-engine/internal/usecase"
	log "github.com/nguyentranbao-ct/chat-engine/pkg/logger/logctx"
	"github.com/nguyentranbao-ct/chat-engine/pkg/util"
	"go.uber.org/fx"
)

func newMongoDB(lc fx.Lifecycle, cfg *config.Config) (*mongodb.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := mongodb.NewConnection(ctx, cfg.Database.URI, cfg.Database.Database, cfg.Index.Database)
	if err != nil {
		return nil, fmt.Errorf("init mongo client: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: db.Close,
	})
	return db, nil
}

func newBackground(cfg *config.Config) util.Background {
	return util.Background{Timeout: cfg.Message.SideEffectTimeout}
}

func newNotifier(lc fx.Lifecycle, cfg *config.Config) (notification.Notifier, error) {
	n, err := notification.NewNotifier(cfg)
	if err != nil {
		return nil, fmt.Errorf("init notifier: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return n.Close()
		},
	})
	return n, nil
}

// EnsureIndexes creates collection and projection indexes before traffic is served.
func EnsureIndexes(lc fx.Lifecycle, cfg *config.Config, uc usecase.ReindexUsecase) {
	if !cfg.Index.EnsureOnStart {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := uc.EnsureIndexes(ctx); err != nil {
				return fmt.Errorf("ensure indexes: %w", err)
			}
			log.Infow(ctx, "indexes ensured")
			return nil
		},
	})
}

// RunOnce executes job after startup and shuts the application down with its outcome.
func RunOnce(lc fx.Lifecycle, sd fx.Shutdowner, name string, job func(ctx context.Context) error) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				ctx := context.Background()
				code := 0
				if err := job(ctx); err != nil {
					log.Errorw(ctx, "job failed", "job", name, "error", err)
					code = 1
				}
				_ = sd.Shutdown(fx.ExitCode(code))
			}()
			return nil
		},
	})
}
