package cmd

import (
	"context"
	"os"

	"github.com/nguyentranbao-ct/chat-engine/internal/app"
	"github.com/nguyentranbao-ct/chat-engine/internal/kafka"
	"github.com/nguyentranbao-ct/chat-engine/internal/server"
	"github.com/nguyentranbao-ct/chat-engine/internal/usecase"
	"github.com/nguyentranbao-ct/chat-engine/pkg/logger"
	log "github.com/nguyentranbao-ct/chat-engine/pkg/logger/logctx"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var rootCmd = &cobra.Command{
	Use:           "chat-engine",
	Short:         "Message lifecycle and fan-out engine",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run:           serve,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and consume identity events",
	Run:   serve,
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild message documents and conversation summaries",
	Run: func(cmd *cobra.Command, args []string) {
		app.Invoke(func(lc fx.Lifecycle, sd fx.Shutdowner, uc usecase.ReindexUsecase) {
			app.RunOnce(lc, sd, "reindex", func(ctx context.Context) error {
				if err := uc.EnsureIndexes(ctx); err != nil {
					return err
				}
				stats, err := uc.Reindex(ctx)
				if err != nil {
					return err
				}
				log.Infow(ctx, "reindex finished", "messages", stats.Messages, "conversations", stats.Conversations, "failed", stats.Failed)
				return nil
			})
		}).Run()
	},
}

var ensureIndexesCmd = &cobra.Command{
	Use:   "ensure-indexes",
	Short: "Create collection and projection indexes",
	Run: func(cmd *cobra.Command, args []string) {
		app.Invoke(func(lc fx.Lifecycle, sd fx.Shutdowner, uc usecase.ReindexUsecase) {
			app.RunOnce(lc, sd, "ensure-indexes", uc.EnsureIndexes)
		}).Run()
	},
}

func serve(cmd *cobra.Command, args []string) {
	app.Invoke(
		app.EnsureIndexes,
		server.StartServer,
		kafka.StartConsumer,
	).Run()
}

func init() {
	rootCmd.AddCommand(serveCmd, reindexCmd, ensureIndexesCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.MustNamed("cmd").Errorw("command failed", "error", err)
		os.Exit(1)
	}
}
