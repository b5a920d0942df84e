package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/insights-digest/internal/digest"
	"github.com/xela07ax/insights-digest/internal/infra"
	"github.com/xela07ax/insights-digest/internal/mail"
	"github.com/xela07ax/insights-digest/internal/pipeline"
)

type fakeRunner struct {
	gotName string
	result  pipeline.Result
	err     error
}

func (f *fakeRunner) Run(ctx context.Context, name string) (pipeline.Result, error) {
	f.gotName = name
	if f.err != nil {
		return pipeline.Result{}, f.err
	}
	res := f.result
	if res.Name == "" {
		res.Name = name
	}
	return res, nil
}

type fakeMailer struct {
	got  *mail.Message
	err  error
	sent int
}

func (f *fakeMailer) Send(ctx context.Context, msg mail.Message) error {
	f.got = &msg
	f.sent++
	return f.err
}

func testConfig() *infra.Config {
	return &infra.Config{
		Mail: infra.MailConfig{
			From:          "digest@example.com",
			To:            "team@example.com",
			SubjectPrefix: "Daily telemetry digest:",
		},
	}
}

func newHandler(runner *fakeRunner, mailer *fakeMailer) *DigestHandler {
	return NewDigestHandler(runner, mailer, testConfig(), pipeline.NewMetrics(nil), zap.NewNop())
}

func TestTriggerSuccess(t *testing.T) {
	runner := &fakeRunner{result: pipeline.Result{
		Digest: digest.Digest{TotalRequests: "1,234"},
		HTML:   "<html>report</html>",
		Name:   "my-app",
		Date:   "30 Aug 2026",
	}}
	mailer := &fakeMailer{}
	h := newHandler(runner, mailer)

	rec := httptest.NewRecorder()
	h.Trigger(rec, httptest.NewRequest(http.MethodGet, "/api/v1/digest?name=my-app", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "my-app", runner.gotName)

	// Письмо собрано из результата пайплайна и конфигурации
	require.NotNil(t, mailer.got)
	assert.Equal(t, "digest@example.com", mailer.got.From)
	assert.Equal(t, "team@example.com", mailer.got.To)
	assert.Equal(t, "<html>report</html>", mailer.got.HTML)
	assert.Contains(t, mailer.got.Subject, "my-app")
	assert.Contains(t, mailer.got.Subject, "30 Aug 2026")

	// Подтверждение включает текстовую форму дайджеста
	assert.Contains(t, rec.Body.String(), "requests: 1,234")
}

func TestTriggerDegradedRunStillAcknowledged(t *testing.T) {
	// Пайплайн уже деградировал до пустого дайджеста — для триггера это успех
	runner := &fakeRunner{result: pipeline.Result{HTML: "<html></html>", Name: "my-app"}}
	mailer := &fakeMailer{}
	h := newHandler(runner, mailer)

	rec := httptest.NewRecorder()
	h.Trigger(rec, httptest.NewRequest(http.MethodGet, "/api/v1/digest?name=my-app", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, mailer.sent)
	assert.Contains(t, rec.Body.String(), digest.Digest{}.String())
}

func TestTriggerMailFailure(t *testing.T) {
	runner := &fakeRunner{result: pipeline.Result{HTML: "<html></html>", Name: "my-app"}}
	mailer := &fakeMailer{err: errors.New("smtp relay down")}
	h := newHandler(runner, mailer)

	rec := httptest.NewRecorder()
	h.Trigger(rec, httptest.NewRequest(http.MethodPost, "/api/v1/digest?name=my-app", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTriggerEmptyNamePassedThrough(t *testing.T) {
	runner := &fakeRunner{result: pipeline.Result{HTML: "<html></html>"}}
	h := newHandler(runner, &fakeMailer{})

	rec := httptest.NewRecorder()
	h.Trigger(rec, httptest.NewRequest(http.MethodGet, "/api/v1/digest", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	// Конфигурационного default_name нет — fallback останется за пайплайном
	assert.Equal(t, "", runner.gotName)
}

func TestTriggerConfiguredDefaultName(t *testing.T) {
	runner := &fakeRunner{result: pipeline.Result{HTML: "<html></html>"}}
	cfg := testConfig()
	cfg.Report.DefaultName = "checkout-probe"
	h := NewDigestHandler(runner, &fakeMailer{}, cfg, pipeline.NewMetrics(nil), zap.NewNop())

	rec := httptest.NewRecorder()
	h.Trigger(rec, httptest.NewRequest(http.MethodGet, "/api/v1/digest", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "checkout-probe", runner.gotName)
}
