package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/xela07ax/insights-digest/internal/digest"
)

// Fetcher — контракт похода за сырой строкой метрик.
type Fetcher interface {
	Fetch(ctx context.Context, query string) (digest.RawRow, error)
}

// BreakerClient оборачивает Fetch в предохранитель. Ретраев здесь нет
// и быть не должно: предохранитель только быстро отсекает заведомо
// мертвый бэкенд, лишних попыток он не добавляет. Открытый предохранитель
// выглядит для оркестратора как обычный отказ бэкенда (ErrBackend) —
// та же деградация до пустого дайджеста.
type BreakerClient struct {
	next Fetcher
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerClient настраивает предохранитель. onOpen (опционально)
// дергается при смене состояния — для gauge-метрики.
func NewBreakerClient(next Fetcher, onOpen func(open bool)) *BreakerClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "telemetry-backend",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Если более 5 ошибок подряд — открываемся
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if onOpen != nil {
				onOpen(to == gobreaker.StateOpen)
			}
		},
	})

	return &BreakerClient{next: next, cb: cb}
}

func (b *BreakerClient) Fetch(ctx context.Context, query string) (digest.RawRow, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Fetch(ctx, query)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrBackend, err)
		}
		return nil, err
	}
	return result.(digest.RawRow), nil
}
