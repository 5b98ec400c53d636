package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"axcouncil/internal/bootstrap/logging"
	"axcouncil/internal/errs"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Credits  CreditsConfig  `mapstructure:"credits"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Provider ProviderConfig `mapstructure:"provider"`
	Panel    PanelConfig    `mapstructure:"panel"`
	Promo    PromoConfig    `mapstructure:"promo"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// CreditsConfig controls lazily-created account seeding. AdminPrincipal is
// the single configured administrative user id; its account is seeded with
// AdminBonus instead of SignupGrant.
type CreditsConfig struct {
	SignupGrant    int64  `mapstructure:"signup_grant"`
	AdminBonus     int64  `mapstructure:"admin_bonus"`
	AdminPrincipal string `mapstructure:"admin_principal"`
}

type DispatchConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type ProviderConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type PanelConfig struct {
	RosterFile string `mapstructure:"roster_file"`
}

type PromoConfig struct {
	RedeemWindowSeconds int `mapstructure:"redeem_window_seconds"`
	RedeemMaxAttempts   int `mapstructure:"redeem_max_attempts"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}
	if cfg.Credits.SignupGrant < 0 || cfg.Credits.AdminBonus < 0 {
		return Config{}, errors.New("credit grants must not be negative")
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("dispatch_subject", cfg.Dispatch.Subject),
	)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "axcouncil")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".axcouncil/state/axcouncil.sqlite")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("credits.signup_grant", 3)
	v.SetDefault("credits.admin_bonus", 1000)
	v.SetDefault("credits.admin_principal", "")
	v.SetDefault("dispatch.url", "nats://127.0.0.1:4222")
	v.SetDefault("dispatch.subject", "axcouncil.jobs")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.timeout_seconds", 120)
	v.SetDefault("panel.roster_file", "configs/models.toml")
	v.SetDefault("promo.redeem_window_seconds", 60)
	v.SetDefault("promo.redeem_max_attempts", 10)
}
