package app

import (
	"github.com/nguyentranbao-ct/chat-engine/internal/config"
	"github.com/nguyentranbao-ct/chat-engine/internal/kafka"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/bus"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/files"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/identity"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/socket"
	"github.com/nguyentranbao-ct/chat-engine/internal/server"
	"github.com/nguyentranbao-ct/chat-engine/internal/usecase"
	"github.com/nguyentranbao-ct/chat-engine/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"
)

func Invoke(funcs ...any) *fx.App {
	log := logger.MustNamed("app")
	conf := config.MustLoad()
	log.Debugw("config loaded", logger.Reflect("config", conf))
	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{
				Logger: log.Unwrap().Desugar(),
			}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Provide(
			newMongoDB,
			newBackground,
			newNotifier,

			server.NewHandler,

			usecase.NewRecipientResolver,
			usecase.NewIndexSynchronizer,
			usecase.NewFanoutDispatcher,
			usecase.NewMessageUsecase,
			usecase.NewGroupUsecase,
			usecase.NewBroadcastUsecase,
			usecase.NewReconcileUsecase,
			usecase.NewReindexUsecase,

			mongodb.NewDirectMessageRepository,
			mongodb.NewGroupMessageRepository,
			mongodb.NewBroadcastMessageRepository,
			mongodb.NewGroupRepository,
			mongodb.NewBroadcastRepository,
			mongodb.NewMessageDocumentRepository,
			mongodb.NewSummaryRepository,

			bus.NewClient,
			identity.NewClient,
			files.NewClient,
			socket.NewClient,

			kafka.NewEventHandler,
			kafka.NewConsumer,
		),
		fx.Supply(conf),
		fx.Invoke(funcs...),
	)
}
