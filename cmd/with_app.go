package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"axcouncil/internal/bootstrap"
	"axcouncil/internal/bootstrap/logging"
	"axcouncil/internal/errs"
	billinguc "axcouncil/internal/usecase/billing"
	counciluc "axcouncil/internal/usecase/council"
	evaluationuc "axcouncil/internal/usecase/evaluation"
	ledgeruc "axcouncil/internal/usecase/ledger"
	paneluc "axcouncil/internal/usecase/panel"
	promouc "axcouncil/internal/usecase/promo"
)

// appServices bundles everything a command may need out of the container.
type appServices struct {
	App         *bootstrap.App
	Evaluations *evaluationuc.Service
	Panels      *paneluc.Service
	Councils    *counciluc.Service
	Credits     *ledgeruc.Service
	Promos      *promouc.Service
	Billing     *billinguc.Service
}

func withApp(run func(cmd *cobra.Command, svcs *appServices) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := logging.WithAttrs(
			cmd.Context(),
			slog.String("command", cmd.CommandPath()),
			slog.String("config_file", cfgFile),
		)

		var svcs appServices
		fxApp := fx.New(
			bootstrap.Module,
			fx.Provide(func() context.Context { return ctx }),
			fx.Provide(
				fx.Annotate(
					func() string { return cfgFile },
					fx.ResultTags(`name:"configFile"`),
				),
			),
			fx.Populate(
				&svcs.App,
				&svcs.Evaluations,
				&svcs.Panels,
				&svcs.Councils,
				&svcs.Credits,
				&svcs.Promos,
				&svcs.Billing,
			),
		)

		startCtx, cancelStart := context.WithTimeout(ctx, 10*time.Second)
		defer cancelStart()
		if err := fxApp.Start(startCtx); err != nil {
			logging.Error(ctx, "bootstrap application failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "start fx application")
		}

		defer func() {
			stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelStop()
			if err := fxApp.Stop(stopCtx); err != nil {
				logging.Error(ctx, "fx application stop failed", slog.Any("err", errs.Loggable(err)))
			}
		}()

		if err := run(cmd, &svcs); err != nil {
			return errs.Wrap(err, "run command")
		}
		return nil
	}
}
