package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"community-portal/internal/articles"
	"community-portal/internal/auth"
	"community-portal/internal/canteen"
	"community-portal/internal/config"
	"community-portal/internal/feedback"
	"community-portal/internal/httpx"
	kafkax "community-portal/internal/kafka"
	"community-portal/internal/postgres"
	"community-portal/internal/redisx"
	"community-portal/internal/users"
	"community-portal/internal/votes"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := zap.Must(zap.NewProduction()).Sugar()
	defer logger.Sync()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalw("db connect", "error", err)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Fatalw("db migrate", "error", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024)
	prod.Start(ctx)

	// repos
	userRepo := &users.Repo{DB: db}
	articleRepo := &articles.Repo{DB: db}
	canteenRepo := &canteen.Repo{DB: db}
	feedbackRepo := &feedback.Repo{DB: db}
	voteRepo := &votes.Repo{DB: db}

	tokens := &auth.TokenIssuer{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTTTL}
	authn, requireAdmin := httpx.NewMiddleware(&auth.Middleware{Tokens: tokens, Roles: userRepo})

	srvHandlers := &httpx.Server{
		Auth:     &httpx.AuthHandler{Users: userRepo, Tokens: tokens, Logger: logger},
		Articles: &httpx.ArticlesHandler{Store: articleRepo, Logger: logger},
		Canteen: &httpx.CanteenHandler{
			Store: canteenRepo, Redis: rdb, Producer: prod,
			Service: cfg.ServiceName, Logger: logger,
		},
		Feedback: &httpx.FeedbackHandler{Store: feedbackRepo, Logger: logger},
		Votes: &httpx.VotesHandler{
			Store: voteRepo, Redis: rdb, Producer: prod,
			Service: cfg.ServiceName, Logger: logger,
		},
		Health:       &httpx.HealthHandler{DB: db, Redis: rdb},
		Authenticate: authn,
		RequireAdmin: requireAdmin,
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvHandlers.Routes(),
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  time.Minute,
	}

	go func() {
		logger.Infow("HTTP listening", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("listen", "error", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // stop accepting publishes
	cancel()          // stop producer loop
	prod.WaitClosed() // drain
}
