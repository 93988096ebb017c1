package graphql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// TestCircuitBreaker тестирует реакцию breaker на транспортные сбои.
func TestCircuitBreaker(t *testing.T) {
	settings := BreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  3,
	}

	t.Run("открывается после серии сбоев", func(t *testing.T) {
		netErr := errors.New("connection refused")
		terminal := &countingLink{results: []func() (*Response, error){
			func() (*Response, error) { return nil, netErr },
		}}

		link := CircuitBreaker("test", settings)(terminal)
		req := NewRequest("Op", "query {}", nil)

		for i := 0; i < 3; i++ {
			_, err := link.RoundTrip(context.Background(), req)
			require.ErrorIs(t, err, netErr)
		}

		// Breaker открыт: операция отклоняется без похода в терминал.
		_, err := link.RoundTrip(context.Background(), req)
		require.ErrorIs(t, err, gobreaker.ErrOpenState)
		assert.Equal(t, 3, terminal.calls)
	})

	t.Run("GraphQL ошибки не открывают breaker", func(t *testing.T) {
		terminal := &countingLink{results: []func() (*Response, error){
			func() (*Response, error) {
				return &Response{Errors: gqlerror.List{{Message: "Bad input"}}}, nil
			},
		}}

		link := CircuitBreaker("test-gql", settings)(terminal)
		req := NewRequest("Op", "query {}", nil)

		for i := 0; i < 10; i++ {
			resp, err := link.RoundTrip(context.Background(), req)
			require.NoError(t, err)
			assert.Len(t, resp.Errors, 1)
		}
		assert.Equal(t, 10, terminal.calls)
	})

	t.Run("успехи держат breaker закрытым", func(t *testing.T) {
		terminal := &countingLink{results: []func() (*Response, error){
			func() (*Response, error) { return &Response{}, nil },
		}}

		link := CircuitBreaker("test-ok", settings)(terminal)
		req := NewRequest("Op", "query {}", nil)

		for i := 0; i < 10; i++ {
			_, err := link.RoundTrip(context.Background(), req)
			require.NoError(t, err)
		}
	})
}

// TestChain тестирует порядок применения middleware.
func TestChain(t *testing.T) {
	var order []string

	tag := func(name string) Middleware {
		return func(next Link) Link {
			return LinkFunc(func(ctx context.Context, req *Request) (*Response, error) {
				order = append(order, name)
				return next.RoundTrip(ctx, req)
			})
		}
	}

	terminal := LinkFunc(func(context.Context, *Request) (*Response, error) {
		order = append(order, "terminal")
		return &Response{}, nil
	})

	link := Chain(terminal, tag("outer"), tag("middle"), tag("inner"))

	_, err := link.RoundTrip(context.Background(), NewRequest("Op", "query {}", nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "middle", "inner", "terminal"}, order)
}
