package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"axcouncil/internal/bootstrap/config"
	"axcouncil/internal/bootstrap/database"
	"axcouncil/internal/bootstrap/logging"
	"axcouncil/internal/infrastructure/dispatch"
	"axcouncil/internal/infrastructure/opinion"
	sqliterepo "axcouncil/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "axcouncil/internal/infrastructure/persistence/sqlite/uow"
	"axcouncil/internal/ports"
	billinguc "axcouncil/internal/usecase/billing"
	counciluc "axcouncil/internal/usecase/council"
	evaluationuc "axcouncil/internal/usecase/evaluation"
	ledgeruc "axcouncil/internal/usecase/ledger"
	paneluc "axcouncil/internal/usecase/panel"
	promouc "axcouncil/internal/usecase/promo"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(provideRoster),
	fx.Provide(provideDispatcher),
	fx.Provide(provideOpinionProvider),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewJobRepository,
			fx.As(new(ports.JobRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewPanelRepository,
			fx.As(new(ports.PanelRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewCouncilRepository,
			fx.As(new(ports.CouncilRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewLedgerRepository,
			fx.As(new(ports.LedgerRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewPromoRepository,
			fx.As(new(ports.PromoRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(provideEvaluationService),
	fx.Provide(provideLedgerService),
	fx.Provide(providePanelService),
	fx.Provide(counciluc.NewService),
	fx.Provide(providePromoService),
	fx.Provide(billinguc.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideRoster(cfg config.Config) (config.Roster, error) {
	return config.LoadRoster(cfg.Panel.RosterFile)
}

func provideDispatcher(lc fx.Lifecycle, cfg config.Config) ports.Dispatcher {
	dispatcher := dispatch.NewNATSDispatcher(cfg.Dispatch.URL, cfg.Dispatch.Subject)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			dispatcher.Close()
			return nil
		},
	})
	return dispatcher
}

func provideOpinionProvider(cfg config.Config) ports.OpinionProvider {
	timeout := time.Duration(cfg.Provider.TimeoutSeconds) * time.Second
	return opinion.NewOpenAIProvider(cfg.Provider.BaseURL, cfg.Provider.APIKey, timeout)
}

func provideEvaluationService(jobs ports.JobRepository, dispatcher ports.Dispatcher) *evaluationuc.Service {
	return evaluationuc.NewService(jobs, dispatcher)
}

func provideLedgerService(repo ports.LedgerRepository, uow ports.UnitOfWork, cfg config.Config) *ledgeruc.Service {
	return ledgeruc.NewService(repo, uow, cfg.Credits)
}

func providePanelService(jobs ports.JobRepository, panels ports.PanelRepository, roster config.Roster, provider ports.OpinionProvider, credits *ledgeruc.Service) *paneluc.Service {
	return paneluc.NewService(jobs, panels, roster, provider, credits)
}

func providePromoService(repo ports.PromoRepository, credits *ledgeruc.Service, uow ports.UnitOfWork, cfg config.Config) *promouc.Service {
	return promouc.NewService(repo, credits, uow, cfg.Promo)
}
