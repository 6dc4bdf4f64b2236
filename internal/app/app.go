package app

import (
	"context"

	"github.com/nguyentranbao-ct/product-hub/internal/config"
	"github.com/nguyentranbao-ct/product-hub/internal/formerror"
	"github.com/nguyentranbao-ct/product-hub/internal/kafka"
	"github.com/nguyentranbao-ct/product-hub/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/product-hub/internal/server"
	"github.com/nguyentranbao-ct/product-hub/internal/submission"
	"github.com/nguyentranbao-ct/product-hub/internal/usecase"
	"github.com/nguyentranbao-ct/product-hub/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"
)

func Invoke(funcs ...any) *fx.App {
	log := logger.MustNamed("app")
	conf := config.MustLoad()
	log.Debugw("config loaded",
		"server", conf.Server.Addr(),
		"database", conf.Database.Database,
		"kafka_enabled", conf.Kafka.Enabled,
		"partners", len(conf.Syndication.Partners),
		"search_failure_policy", conf.Search.FailurePolicy,
	)
	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{
				Logger: log.Desugar(),
			}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		Module(conf),
		fx.Invoke(funcs...),
	)
}

// Module provides every service dependency for conf.
func Module(conf *config.Config) fx.Option {
	return fx.Options(
		fx.Provide(
			newMongoDB,
			newSubmissionManager,
			newTranslator,

			server.NewProductController,
			server.NewSubmissionController,

			usecase.NewProductUsecase,
			usecase.NewSyndicationUsecase,

			mongodb.NewProductRepository,
			mongodb.NewSyndicationRepository,

			kafka.NewPublisher,
		),
		fx.Supply(conf),
		fx.Invoke(EnsureIndexes),
	)
}

func newTranslator(cfg *config.Config) submission.ErrorTranslator {
	return formerror.NewTranslator(cfg.Messages.CreateFailedDefault)
}

// newSubmissionManager runs sessions against the in-process product use case.
func newSubmissionManager(
	lc fx.Lifecycle,
	cfg *config.Config,
	products usecase.ProductUsecase,
	translator submission.ErrorTranslator,
) *submission.Manager {
	m := submission.NewManager(cfg, products, products, translator)
	lc.Append(fx.StopHook(m.Close))
	return m
}

// EnsureIndexes creates the collections' indexes before the server accepts traffic.
func EnsureIndexes(
	lc fx.Lifecycle,
	products mongodb.ProductRepository,
	syndications mongodb.SyndicationRepository,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := products.EnsureIndexes(ctx); err != nil {
				return err
			}
			return syndications.EnsureIndexes(ctx)
		},
	})
}
