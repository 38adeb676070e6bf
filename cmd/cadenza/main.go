package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path"
	"sort"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/cadenza/internal/auth"
	"github.com/dropDatabas3/cadenza/internal/cache"
	"github.com/dropDatabas3/cadenza/internal/config"
	"github.com/dropDatabas3/cadenza/internal/email"
	authctrl "github.com/dropDatabas3/cadenza/internal/http/controllers/auth"
	catalogctrl "github.com/dropDatabas3/cadenza/internal/http/controllers/catalog"
	mw "github.com/dropDatabas3/cadenza/internal/http/middlewares"
	"github.com/dropDatabas3/cadenza/internal/http/router"
	"github.com/dropDatabas3/cadenza/internal/metrics"
	"github.com/dropDatabas3/cadenza/internal/observability/logger"
	"github.com/dropDatabas3/cadenza/internal/privacy"
	"github.com/dropDatabas3/cadenza/internal/rate"
	"github.com/dropDatabas3/cadenza/internal/security/password"
	"github.com/dropDatabas3/cadenza/internal/security/totp"
	"github.com/dropDatabas3/cadenza/internal/store/pg"
	"github.com/dropDatabas3/cadenza/migrations"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "cadenza",
		Short: "Backend de catálogo musical con autorización opaca",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Ruta del archivo de configuración YAML")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP y el endpoint de métricas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}
	root.AddCommand(serveCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones embebidas sobre la base configurada",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), configPath)
		},
	}
	root.AddCommand(migrateCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func migrate(ctx context.Context, configPath string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	conn, err := pgx.Connect(ctx, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("migrate: connect: %w", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	entries, err := fs.ReadDir(migrations.PostgresFS, migrations.PostgresDir)
	if err != nil {
		return fmt.Errorf("migrate: read embedded migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		sql, err := fs.ReadFile(migrations.PostgresFS, path.Join(migrations.PostgresDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("migrate: read %s: %w", entry.Name(), err)
		}
		if _, err := conn.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("migrate: apply %s: %w", entry.Name(), err)
		}
		fmt.Printf("applied %s\n", entry.Name())
	}
	return nil
}

func serve(configPath string) error {
	// .env es opcional; las vars del sistema siempre ganan sobre el YAML.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cacheClient, err := cache.New(cache.Config{
		Kind:     cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer func() { _ = cacheClient.Close() }()

	st, err := pg.New(ctx, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close()

	if err := metrics.RegisterAuth(nil); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// Wiring del core.
	hashParams := password.Params{
		Memory:      cfg.Hash.Memory,
		Time:        cfg.Hash.Time,
		Parallelism: cfg.Hash.Parallelism,
		KeyLen:      cfg.Hash.KeyLen,
	}
	totpPolicy := totp.Policy{
		Issuer:   cfg.TOTP.Issuer,
		Digits:   cfg.TOTP.Digits,
		Interval: cfg.TOTP.Interval,
		Skew:     cfg.TOTP.Skew,
	}

	tokens := auth.NewTokenService(cacheClient, auth.PolicyFromConfig(cfg))
	totpSvc := auth.NewTOTPService(tokens.Store(), st, totpPolicy)
	clients := auth.NewClientAuthenticator(st, hashParams)
	mailer := email.NewSMTP(email.Config{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
	})
	login := auth.NewLoginService(st, tokens, totpSvc, mailer, hashParams)
	engine := privacy.NewEngine(st)

	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		if rc, ok := cache.RedisOf(cacheClient); ok {
			limiter = rate.NewRedisLimiter(rc, "rl:", cfg.Rate.Max, cfg.Rate.Window.Std())
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Rate.Max, cfg.Rate.Window.Std())
		}
	}

	handler := router.New(router.Deps{
		Auth:          authctrl.NewControllers(login, tokens, clients, totpSvc),
		Catalog:       catalogctrl.NewControllers(engine, st),
		Authenticator: mw.NewAuthenticator(tokens),
		Store:         st,
		Cache:         cacheClient,
		Limiter:       limiter,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	var metricsSrv *http.Server
	if cfg.Server.MetricsAddr != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.Server.MetricsAddr, Handler: metricsMux}

		g.Go(func() error {
			log.Info("metrics server listening", logger.String("addr", cfg.Server.MetricsAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
