package handler

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/xela07ax/insights-digest/internal/infra"
	"github.com/xela07ax/insights-digest/internal/mail"
	"github.com/xela07ax/insights-digest/internal/pipeline"
)

// PipelineRunner Описываем, что хендлеру нужно от оркестратора
type PipelineRunner interface {
	Run(ctx context.Context, name string) (pipeline.Result, error)
}

// MailSender — контракт транспорта доставки.
type MailSender interface {
	Send(ctx context.Context, msg mail.Message) error
}

type DigestHandler struct {
	pipeline PipelineRunner
	mailer   MailSender
	mailCfg  infra.MailConfig
	// fallback имени на уровне триггера; пустое — константа пайплайна
	defaultName string
	metrics     *pipeline.Metrics
	logger      *zap.Logger
}

func NewDigestHandler(p PipelineRunner, m MailSender, cfg *infra.Config, metrics *pipeline.Metrics, logger *zap.Logger) *DigestHandler {
	return &DigestHandler{
		pipeline:    p,
		mailer:      m,
		mailCfg:     cfg.Mail,
		defaultName: cfg.Report.DefaultName,
		metrics:     metrics,
		logger:      logger.Named("digest-handler"),
	}
}

// Trigger — входная точка: синхронно гоняет пайплайн и отдает письмо
// транспорту. Отказ бэкенда телеметрии сюда не доходит (пайплайн
// деградирует сам), поэтому единственный путь к 500 — отказ почтового
// транспорта или рендера.
func (h *DigestHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = h.defaultName
	}

	res, err := h.pipeline.Run(r.Context(), name)
	if err != nil {
		http.Error(w, "Failed to build report", http.StatusInternalServerError)
		return
	}

	msg := mail.Message{
		Subject: fmt.Sprintf("%s %s — %s", h.mailCfg.SubjectPrefix, res.Name, res.Date),
		From:    h.mailCfg.From,
		To:      h.mailCfg.To,
		HTML:    res.HTML,
	}

	if err := h.mailer.Send(r.Context(), msg); err != nil {
		h.metrics.MailSends.WithLabelValues("error").Inc()
		h.logger.Error("mail dispatch failed", zap.String("to", h.mailCfg.To), zap.Error(err))
		http.Error(w, "Failed to dispatch digest mail", http.StatusInternalServerError)
		return
	}
	h.metrics.MailSends.WithLabelValues("ok").Inc()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Digest for %q sent to %s.\n%s\n", res.Name, h.mailCfg.To, res.Digest)
}
