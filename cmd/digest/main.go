package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xela07ax/insights-digest/internal/infra"
	"github.com/xela07ax/insights-digest/internal/mail"
	"github.com/xela07ax/insights-digest/internal/pipeline"
	"github.com/xela07ax/insights-digest/internal/report"
	"github.com/xela07ax/insights-digest/internal/server"
	"github.com/xela07ax/insights-digest/internal/server/handler"
	"github.com/xela07ax/insights-digest/internal/telemetry"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// 2. Метрики
	reg := prometheus.NewRegistry()
	metrics := pipeline.NewMetrics(reg)

	// 3. Клиенты внешних систем
	teleClient := telemetry.NewClient(cfg.Telemetry, logger)
	// Оборачиваем в предохранитель; состояние выводим в gauge
	safeTele := telemetry.NewBreakerClient(teleClient, func(open bool) {
		if open {
			metrics.BreakerOpen.Set(1)
		} else {
			metrics.BreakerOpen.Set(0)
		}
	})
	mailer := mail.NewClient(cfg.Mail, logger)

	// 4. Ядро и HTTP-поверхность (Dependency Injection)
	pipe := pipeline.New(safeTele, report.NewRenderer(), metrics, logger)
	digestH := handler.NewDigestHandler(pipe, mailer, cfg, metrics, logger)
	srvHandler := server.New(cfg, logger, digestH, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srvHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 5. Запуск и Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("digest service started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop // Ждем сигнал
	logger.Info("digest service stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server shutdown failed", zap.Error(err))
	}
	logger.Info("digest service exited properly")
}
