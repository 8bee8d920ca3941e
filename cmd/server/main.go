package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/suPer8Hu/focusbot/internal/ai"
	"github.com/suPer8Hu/focusbot/internal/auth"
	"github.com/suPer8Hu/focusbot/internal/config"
	"github.com/suPer8Hu/focusbot/internal/db"
	"github.com/suPer8Hu/focusbot/internal/history"
	"github.com/suPer8Hu/focusbot/internal/httpapi"
	"github.com/suPer8Hu/focusbot/internal/httpapi/handlers"
	"github.com/suPer8Hu/focusbot/internal/logger"
	"github.com/suPer8Hu/focusbot/internal/relay"
	"github.com/suPer8Hu/focusbot/internal/store/rabbitmq"
	"github.com/suPer8Hu/focusbot/internal/store/redisstore"
	"github.com/suPer8Hu/focusbot/internal/subject"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// runs last so the other deferred closes happen first
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}
	gin.SetMode(cfg.Mode)

	gdb, err := db.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}

	// subject cache
	var cache subject.Cache
	if cfg.RedisEnabled {
		rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SubjectCacheTTL)
		if err := rds.Ping(context.Background()); err != nil {
			log.Fatal("redis ping", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		defer rds.Close()
		cache = rds
		log.Info("subject cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	hist := history.NewService(history.NewRepo(gdb))

	var recorder relay.Recorder = history.SyncRecorder{Svc: hist}
	if cfg.HistoryAsync {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Fatal("rabbit publisher", zap.Error(err))
		}
		defer pub.Close()
		recorder = pub
		log.Info("history persisted asynchronously", zap.String("queue", cfg.RabbitQueue))
	}

	// build the provider once, outside any request context
	reg := ai.DefaultRegistry(cfg)
	provider, err := reg.Get(context.Background(), cfg.AIProvider)
	if err != nil {
		log.Fatal("ai provider", zap.String("provider", cfg.AIProvider), zap.Error(err))
	}
	defer func() {
		if err := ai.CloseProvider(provider); err != nil {
			log.Warn("close ai provider", zap.Error(err))
		}
	}()

	h := handlers.NewHandler(
		gdb,
		auth.NewService(gdb, cfg.JWTSecret, cfg.TokenTTL),
		subject.NewService(subject.NewRepo(gdb), cache),
		hist,
		relay.NewService(provider, hist, recorder, cfg.ChatContextWindowSize, log.Named("relay")),
		log.Named("http"),
	)
	r := httpapi.NewRouter(h, httpapi.RouterOptions{
		FrontendOrigin: cfg.FrontendOrigin,
		BuildDir:       cfg.BuildDir,
	}, log.Named("http"))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("provider", cfg.AIProvider),
			zap.String("db", cfg.DBDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", zap.Error(err))
		exitCode = 1
	}
}
