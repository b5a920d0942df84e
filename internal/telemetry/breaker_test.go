package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/insights-digest/internal/digest"
)

type stubFetcher struct {
	calls int
	err   error
	row   digest.RawRow
}

func (s *stubFetcher) Fetch(ctx context.Context, query string) (digest.RawRow, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.row, nil
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	stub := &stubFetcher{row: digest.RawRow{}}
	b := NewBreakerClient(stub, nil)

	row, err := b.Fetch(context.Background(), "q")
	require.NoError(t, err)
	assert.NotNil(t, row)
	assert.Equal(t, 1, stub.calls)
}

func TestBreakerPassesThroughError(t *testing.T) {
	boom := errors.New("boom")
	stub := &stubFetcher{err: boom}
	b := NewBreakerClient(stub, nil)

	_, err := b.Fetch(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubFetcher{err: errors.New("backend down")}
	var opened bool
	b := NewBreakerClient(stub, func(open bool) { opened = open })

	// Порог — больше пяти отказов подряд
	for i := 0; i < 6; i++ {
		_, err := b.Fetch(context.Background(), "q")
		require.Error(t, err)
	}
	assert.Equal(t, 6, stub.calls)
	assert.True(t, opened)

	// Открытый предохранитель отсекает вызов, не добавляя попыток,
	// и классифицируется как отказ бэкенда
	_, err := b.Fetch(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackend)
	assert.Equal(t, 6, stub.calls)
}
