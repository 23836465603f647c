package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httpapi "github.com/radieske/odds-mcp-server/internal/mcp-service/http"
	"github.com/radieske/odds-mcp-server/internal/mcp-service/provider"
	"github.com/radieske/odds-mcp-server/internal/mcp-service/session"
	"github.com/radieske/odds-mcp-server/internal/mcp-service/tools"
	"github.com/radieske/odds-mcp-server/internal/shared/cache"
	"github.com/radieske/odds-mcp-server/internal/shared/config"
	"github.com/radieske/odds-mcp-server/internal/shared/logger"
	"github.com/radieske/odds-mcp-server/internal/shared/metrics"
)

func main() {
	// carrega config
	cfg := config.Load()

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))

	// credencial do provedor é pré-condição de subida, não falha por requisição
	if cfg.OddsAPIKey == "" {
		log.Fatal("ODDS_API_KEY is not set; refusing to start")
	}

	// cache de respostas do provedor é opcional
	var respCache *provider.ResponseCache
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.ConnectRedis(cfg.RedisAddr)
		if err != nil {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close()
		respCache = provider.NewResponseCache(redisClient)
		log.Info("redis connected", zap.String("addr", cfg.RedisAddr))
	}

	oddsClient := provider.New(cfg.OddsAPIBaseURL, cfg.OddsAPIKey, respCache, log)
	registry := tools.NewRegistry(oddsClient, log)
	sessions := session.NewManager(registry.NewServer, log)

	api := &httpapi.API{Sessions: sessions, Log: log}

	// sobe servidor de métricas e health em porta separada
	// healthz valida o redis quando o cache está habilitado
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if redisClient != nil {
			return redisClient.Ping(ctx).Err()
		}
		return nil
	})
	log.Info("metrics/health server starting", zap.String("addr", metricsSrv.Addr))

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}

	go func() {
		log.Info("mcp server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("mcp server failed", zap.Error(err))
		}
	}()

	// shutdown: fecha todas as sessões abertas antes de derrubar o processo
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down", zap.Int("open_sessions", sessions.Len()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sessions.CloseAll(ctx)
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("mcp server shutdown error", zap.Error(err))
	}
	if err := metricsSrv.Shutdown(ctx); err != nil {
		log.Warn("metrics server shutdown error", zap.Error(err))
	}
}
