// Command server runs the attest credential wallet service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"attest/internal/activity"
	authhandler "attest/internal/auth/handler"
	"attest/internal/auth/jwttoken"
	authservice "attest/internal/auth/service"
	authstore "attest/internal/auth/store"
	"attest/internal/credential/cache"
	credentialhandler "attest/internal/credential/handler"
	credentialmetrics "attest/internal/credential/metrics"
	credentialservice "attest/internal/credential/service"
	credentialstore "attest/internal/credential/store"
	httprouter "attest/internal/http"
	identityhandler "attest/internal/identity/handler"
	identitymetrics "attest/internal/identity/metrics"
	identityservice "attest/internal/identity/service"
	identitystore "attest/internal/identity/store"
	"attest/internal/platform/config"
	"attest/internal/platform/httpserver"
	"attest/internal/platform/logger"
	platformmetrics "attest/internal/platform/metrics"
	"attest/internal/platform/postgres"
	"attest/internal/platform/redis"
	"attest/pkg/platform/httputil"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage: Postgres when a DSN is configured, in-memory otherwise.
	var (
		users         authstore.Store
		dids          identitystore.Store
		credentials   credentialstore.Store
		verifications credentialstore.VerificationStore
		activities    activity.Store
		healthchecks  []func(context.Context) error
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		users = authstore.NewPostgres(db)
		dids = identitystore.NewPostgres(db)
		credentials = credentialstore.NewPostgres(db)
		verifications = credentialstore.NewVerificationPostgres(db)
		activities = activity.NewPostgres(db)
		healthchecks = append(healthchecks, db.PingContext)
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
		users = authstore.NewInMemory()
		dids = identitystore.NewInMemory()
		credentials = credentialstore.NewInMemory()
		verifications = credentialstore.NewVerificationInMemory()
		activities = activity.NewInMemoryStore()
	}

	// Optional Redis share-token cache.
	var shareCache *cache.ShareTokenCache
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		shareCache = cache.New(redisClient.Client, cfg.ShareTokenCacheTTL, log)
		healthchecks = append(healthchecks, redisClient.Health)
	}

	// Optional Kafka activity mirror.
	var activityOpts []activity.Option
	var kafkaSink *activity.KafkaSink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err = activity.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		activityOpts = append(activityOpts, activity.WithSink(kafkaSink))
	}
	publisher := activity.NewPublisher(activities, log, activityOpts...)

	// Services.
	tokens := jwttoken.NewService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	identitySvc := identityservice.New(dids, users, publisher, identitymetrics.New(), log)
	credentialSvc := credentialservice.New(
		credentials, verifications, identitySvc, publisher, credentialmetrics.New(), log,
		credentialservice.WithShareTokenCache(shareCache),
	)
	// Cascade order: verifications and credentials first, then the activity
	// timeline, then DIDs, then the user row itself.
	authSvc := authservice.New(users, tokens, cfg.Auth.TokenTTL, log,
		credentialSvc, publisher, identitySvc,
	)

	router := httprouter.New(
		httprouter.Handlers{
			Auth:       authhandler.New(authSvc, log),
			Identity:   identityhandler.New(identitySvc, log),
			Credential: credentialhandler.New(credentialSvc, cfg.AdminVerifierDID, log),
			Activity:   activity.NewHandler(publisher, log),
		},
		tokens,
		platformmetrics.NewHTTP(),
		healthcheck(healthchecks),
		log,
	)

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting attest server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if kafkaSink != nil {
		group.Go(func() error {
			if err := kafkaSink.Run(groupCtx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// healthcheck reports ok when every configured backend responds.
func healthcheck(checks []func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
				})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
