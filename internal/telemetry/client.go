package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/xela07ax/insights-digest/internal/digest"
	"github.com/xela07ax/insights-digest/internal/infra"
)

// ErrBackend классифицирует отказ бэкенда телеметрии: сетевой сбой или
// не-2xx статус. Оркестратор по этой ошибке деградирует до пустого
// дайджеста вместо падения всего вызова.
var ErrBackend = errors.New("telemetry backend unavailable")

const (
	headerAPIKey     = "x-api-key"
	headerClientName = "x-ms-client-name"
	headerRequestID  = "x-ms-client-request-id"

	// clientName — статический идентификатор сервиса в заголовках запроса
	clientName = "insights-digest"

	maxResponseBytes = 4 * 1024 * 1024 // 4 MB — с запасом для одной сводной строки
)

// Client ходит в query-endpoint бэкенда телеметрии.
// Одна попытка на вызов: без ретраев, без бэкоффа, без кэша.
type Client struct {
	http   *http.Client
	cfg    infra.TelemetryConfig
	logger *zap.Logger
}

func NewClient(cfg infra.TelemetryConfig, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger.Named("telemetry"),
	}
}

// Fetch выполняет один GET с запросом и возвращает первую строку первой
// таблицы ответа. Пустой результат (нет таблиц, нет строк) — не ошибка:
// вернется пустой RawRow, дальше он соберется в пустой дайджест.
func (c *Client) Fetch(ctx context.Context, query string) (digest.RawRow, error) {
	// 1. Свежий корреляционный идентификатор на каждый вызов —
	// для трассировки на стороне бэкенда. В отчет он не попадает.
	correlationID := uuid.New().String()

	endpoint := fmt.Sprintf("%s/v1/apps/%s/query?clientId=%s&timespan=%s&query=%s",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		c.cfg.AppID,
		correlationID,
		c.cfg.Timespan,
		url.QueryEscape(query),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create request: %w", err)
	}

	// 2. Аутентификация и идентификация вызывающего
	req.Header.Set(headerAPIKey, c.cfg.APIKey)
	req.Header.Set(headerClientName, clientName)
	req.Header.Set(headerRequestID, correlationID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrBackend, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("query rejected by backend",
			zap.Int("status", resp.StatusCode),
			zap.String("request_id", correlationID),
			zap.String("body", truncate(body, 200)))
		return nil, fmt.Errorf("%w: unexpected status %d", ErrBackend, resp.StatusCode)
	}

	c.logger.Debug("query completed",
		zap.String("request_id", correlationID),
		zap.Duration("took", time.Since(start)))

	// 3. Извлекаем tables[0].rows[0]; короткая или отсутствующая строка —
	// штатные частичные данные
	row := gjson.GetBytes(body, "tables.0.rows.0")
	if !row.IsArray() {
		return digest.RawRow{}, nil
	}
	return digest.RawRow(row.Array()), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
