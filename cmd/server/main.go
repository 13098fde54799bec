package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"oidc-registration-test/internal/api"
	"oidc-registration-test/internal/auth"
	"oidc-registration-test/internal/biz"
	"oidc-registration-test/internal/conf"
	"oidc-registration-test/internal/data"
	"oidc-registration-test/internal/server"
	"oidc-registration-test/internal/service"
)

var flagconf string

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// load config; a missing variable stops the process before the listener binds
	cfg, err := conf.Load(flagconf)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		"token_url", cfg.Provider.TokenURL(),
		"userinfo_url", cfg.Provider.UserInfoURL,
		"redirect_uri", cfg.Provider.CallbackURL(),
		"client_id", cfg.Provider.ClientID,
		"client_secret", auth.MaskSecret(cfg.Provider.ClientSecret),
		"audience", cfg.Provider.Audience,
		"authorization_code", auth.MaskSecret(cfg.Provider.AuthorizationCode),
		"http_timeout", cfg.Server.HTTPTimeout,
	)

	// manual dependency injection
	// data
	runRepo, err := data.NewSQLiteRunRepo(cfg.Server.HistoryDB)
	if err != nil {
		logger.Error("failed to init run history", "error", err)
		os.Exit(1)
	}
	defer runRepo.Close()

	// auth
	oidcClient := auth.NewOIDCClient(ctx, &cfg.Provider, cfg.Server.HTTPTimeout)

	// biz
	registrationUsecase := biz.NewRegistrationUsecase(oidcClient, runRepo, cfg.Provider.AuthorizationCode, logger)
	// service
	registrationService := service.NewRegistrationService(registrationUsecase)
	// api
	router := api.NewRouter(api.NewRegistrationHandler(registrationService), logger)

	srv := server.New(cfg.Server.Addr, router, cfg.Server.HTTPTimeout)
	if err := server.Run(ctx, srv, logger); err != nil {
		logger.Error("http server failed", "error", err)
		runRepo.Close()
		os.Exit(1)
	}
}
