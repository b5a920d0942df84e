package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/insights-digest/internal/infra"
)

// Message — структурированное письмо для транспорта доставки.
// Обязанность сервиса — корректно его собрать и передать; гарантии
// доставки, ретраи и очереди — контракт почтового провайдера.
type Message struct {
	Subject string
	From    string
	To      string
	HTML    string
}

// Формат /v3/mail/send почтового провайдера.
type sendPayload struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

type personalization struct {
	To []address `json:"to"`
}

type address struct {
	Email string `json:"email"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Client отправляет письмо через HTTP API почтового провайдера.
// Одна попытка: отказ провайдера поднимается наверх как ошибка вызова.
type Client struct {
	http   *http.Client
	cfg    infra.MailConfig
	logger *zap.Logger
}

func NewClient(cfg infra.MailConfig, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger.Named("mail"),
	}
}

// Send выполняет POST письма. Любой не-2xx статус — ошибка.
func (c *Client) Send(ctx context.Context, msg Message) error {
	payload := sendPayload{
		Personalizations: []personalization{{To: []address{{Email: msg.To}}}},
		From:             address{Email: msg.From},
		Subject:          msg.Subject,
		Content:          []content{{Type: "text/html", Value: msg.HTML}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("mail: marshal payload: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v3/mail/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mail: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("mail transport rejected message",
			zap.Int("status", resp.StatusCode),
			zap.String("to", msg.To),
			zap.ByteString("body", respBody))
		return fmt.Errorf("mail: unexpected status %d", resp.StatusCode)
	}

	c.logger.Info("digest mail dispatched", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
