package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/chi-demo/middleware"
	"github.com/waspscripts/wasp-web/pkg/waspweb"
	"github.com/waspscripts/wasp-web/pkg/waspweb/api"
	"github.com/waspscripts/wasp-web/pkg/waspweb/config"
	"github.com/waspscripts/wasp-web/pkg/waspweb/pages"
)

func main() {
	envHelp := flag.Bool("env-help", false, "print the environment variables and exit")
	flag.Parse()
	if *envHelp {
		config.EnvUsage(os.Stdout)
		return
	}

	// A missing .env file is fine, the process environment is used as is
	_ = godotenv.Load()

	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}
	cfg.LogSummary(slog.Default())

	ctx := context.Background()
	res, err := cfg.Build(ctx)
	if err != nil {
		slog.Error("Failed to build server", "err", err)
		os.Exit(1)
	}
	defer res.Close()

	assembler := pages.New(res.Repository,
		pages.WithCatalog(pages.NewCatalog(res.Repository, pages.DefaultCatalogTTL)),
		pages.WithPackageStore(res.Stores[waspweb.BucketPackages]),
		pages.WithSiteURL(cfg.SiteURL),
	)
	tokenAuth := api.NewTokenAuth(cfg.AuthJWTSecret)

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)
	server.R.Handle("/metrics", promhttp.Handler())

	server.R.Group(func(r chi.Router) {
		r.Use(api.Metrics)
		r.Use(api.LimitRequestSize(api.DefaultMaxRequestBytes))
		r.Use(api.Verifier(tokenAuth))
		r.Mount("/scripts", api.NewScriptsHandler(res.Publisher, res.Repository).Routes())

		if res.Auth != nil {
			var authOpts []api.AuthOption
			if res.Refresher != nil {
				authOpts = append(authOpts, api.WithDiscordRefresher(res.Refresher))
			}
			authOpts = append(authOpts, api.WithSiteURL(cfg.SiteURL))
			r.Mount("/auth", api.NewAuthHandler(res.Auth, res.Repository, authOpts...).Routes())
		} else {
			slog.Warn("AUTH_URL is not set, auth routes are disabled")
		}

		r.Mount("/", api.NewPagesHandler(assembler).Routes())
	})

	if res.Auth != nil && cfg.AdminAPIKeySHA256 != "" {
		apiKeyMiddleware, err := middleware.ApiKeyMiddleware(middleware.ApiKeyConfig{
			APIKeys: map[string]string{
				"admin": cfg.AdminAPIKeySHA256,
			},
		})
		if err != nil {
			slog.Error("Failed initialize API Key middleware", "err", err)
			return
		}

		session := waspweb.NewAdminSession(res.Auth, waspweb.Credentials{
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
		})
		profiles := waspweb.NewAdminProfiles(session, res.Repository)

		server.R.Route("/admin", func(r chi.Router) {
			r.Use(api.Metrics)
			r.Use(apiKeyMiddleware)
			r.Mount("/profiles", api.NewProfilesHandler(profiles).Routes())
		})
	} else {
		slog.Warn("Admin routes are disabled, set AUTH_URL and ADMIN_API_KEY_SHA256 to enable them")
	}

	server.Run()
}
