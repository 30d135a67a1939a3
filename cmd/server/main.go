package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"vaultbridge/internal/auth"
	"vaultbridge/internal/bridge"
	"vaultbridge/internal/card"
	cardstore "vaultbridge/internal/card/store"
	"vaultbridge/internal/custody"
	custodystore "vaultbridge/internal/custody/store"
	"vaultbridge/internal/events"
	jwttoken "vaultbridge/internal/jwt_token"
	"vaultbridge/internal/kyc"
	"vaultbridge/internal/platform/config"
	"vaultbridge/internal/platform/httpserver"
	"vaultbridge/internal/platform/logger"
	"vaultbridge/internal/platform/metrics"
	platformredis "vaultbridge/internal/platform/redis"
	"vaultbridge/internal/transfer"
	httptransport "vaultbridge/internal/transport/http"
	"vaultbridge/internal/user"
	userstore "vaultbridge/internal/user/store"
)

func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Stores: postgres when DATABASE_URL is set, in-memory otherwise.
	var (
		users     user.Store
		wallets   custody.WalletStore
		addresses custody.AddressStore
		cards     card.Store
		db        *sql.DB
	)
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("database unreachable", "error", err)
			os.Exit(1)
		}
		users = userstore.NewPostgresStore(db)
		wallets = custodystore.NewPostgresWalletStore(db)
		addresses = custodystore.NewPostgresAddressStore(db)
		cards = cardstore.NewPostgresStore(db)
		log.Info("using postgres stores")
	} else {
		users = userstore.NewMemoryStore()
		wallets = custodystore.NewMemoryWalletStore()
		addresses = custodystore.NewMemoryAddressStore()
		cards = cardstore.NewMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Events: kafka pipeline when brokers are configured, no-op otherwise.
	var (
		emitter events.Emitter = events.NopEmitter{}
		worker  *events.Worker
	)
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := events.NewKafkaSink(cfg.KafkaBrokers, cfg.EventsTopic)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		publisher := events.NewPublisher(256, log)
		worker = events.NewWorker(sink, publisher.Inbox(), log)
		emitter = publisher
		log.Info("event pipeline enabled", "topic", cfg.EventsTopic)
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "vaultbridge", cfg.TokenTTL)
	jwtValidator := jwttoken.NewMiddlewareAdapter(jwtService)

	gateway := bridge.New(cfg.Bridge, log, m)
	kycService := kyc.NewService(gateway, redisClient, cfg.KYCCacheTTL, log)
	userService := user.NewService(users, kycService, emitter, m, log)
	authService := auth.NewService(users, kycService, jwtService, emitter, m, log, cfg.BcryptCost)
	custodyService := custody.NewService(users, gateway, wallets, addresses, emitter, m, log)
	cardService := card.NewService(cards, emitter, log)
	transferService := transfer.NewService(gateway, users, log)

	health := httptransport.HealthFunc(func(r *http.Request) bool {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				return false
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				return false
			}
		}
		return true
	})

	router := httptransport.NewRouter(
		log, m, jwtValidator, health,
		httptransport.NewAuthHandler(authService, log),
		httptransport.NewUserHandler(userService, log),
		httptransport.NewCustodyHandler(custodyService, log),
		httptransport.NewCardHandler(cardService, log),
		httptransport.NewTransferHandler(transferService, log),
	)

	server := httpserver.New(cfg.Addr, router.Handler())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if worker != nil {
		g.Go(func() error {
			if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
