package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/insights-digest/internal/digest"
	"github.com/xela07ax/insights-digest/internal/telemetry"
)

// Renderer — контракт отрисовки дайджеста в документ.
type Renderer interface {
	Render(subjectName, dateLabel string, d digest.Digest) (string, error)
}

// Result — итог одного прогона пайплайна. Digest остается в результате
// и при деградации (тогда он нулевой), чтобы триггер мог включить его
// текстовую форму в подтверждение.
type Result struct {
	Digest digest.Digest
	HTML   string
	Name   string
	Date   string
}

// Pipeline — оркестратор: запрос → бэкенд → сборка → рендер.
// Без состояния между вызовами; параллельные вызовы безопасны.
type Pipeline struct {
	fetcher  telemetry.Fetcher
	renderer Renderer
	metrics  *Metrics
	logger   *zap.Logger
	now      func() time.Time // подменяется в тестах
}

func New(f telemetry.Fetcher, r Renderer, m *Metrics, logger *zap.Logger) *Pipeline {
	if m == nil {
		m = NewMetrics(nil)
	}
	return &Pipeline{
		fetcher:  f,
		renderer: r,
		metrics:  m,
		logger:   logger.Named("pipeline"),
		now:      time.Now,
	}
}

// Run выполняет один прогон. Отказ бэкенда — не ошибка прогона:
// вместо данных подставляется нулевой дайджест и отчет все равно
// рендерится (политика «деградировать до пустого отчета»). Ошибку Run
// возвращает только при отказе рендера.
func (p *Pipeline) Run(ctx context.Context, name string) (Result, error) {
	if name == "" {
		name = digest.DefaultFilterName
	}

	// 1. Запрос
	query := digest.BuildQuery(name)

	// 2. Поход в бэкенд; явная ветка деградации вместо catch-all
	var d digest.Digest
	outcome := "ok"

	start := time.Now()
	row, err := p.fetcher.Fetch(ctx, query)
	p.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		outcome = "degraded"
		p.metrics.FetchErrors.WithLabelValues(failureReason(err)).Inc()
		p.logger.Warn("telemetry fetch failed, falling back to empty digest",
			zap.String("name", name), zap.Error(err))
	} else {
		d = digest.Assemble(row)
	}
	p.metrics.RunsTotal.WithLabelValues(outcome).Inc()

	// 3. Рендер
	date := p.now().UTC().Format("2 Jan 2006")
	html, err := p.renderer.Render(name, date, d)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: %w", err)
	}

	return Result{Digest: d, HTML: html, Name: name, Date: date}, nil
}

func failureReason(err error) string {
	if errors.Is(err, telemetry.ErrBackend) {
		return "backend"
	}
	return "other"
}
