package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWarmer struct {
	mock.Mock
}

func (m *MockWarmer) Warm(ctx context.Context, symbols []string) (int, error) {
	args := m.Called(ctx, symbols)
	return args.Int(0), args.Error(1)
}

type MockLister struct {
	mock.Mock
}

func (m *MockLister) Symbols(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	symbols, _ := args.Get(0).([]string)
	return symbols, args.Error(1)
}

func TestRunNow(t *testing.T) {
	ctx := context.Background()

	t.Run("warms the watchlist", func(t *testing.T) {
		warmer := new(MockWarmer)
		lister := new(MockLister)
		warmer.On("Warm", mock.Anything, []string{"AAPL", "MSFT"}).Return(2, nil)

		s := New(ctx, warmer, lister, []string{"AAPL", "MSFT"})
		assert.Equal(t, 2, s.RunNow())

		warmer.AssertExpectations(t)
		lister.AssertNotCalled(t, "Symbols", mock.Anything)
	})

	t.Run("falls back to every symbol", func(t *testing.T) {
		warmer := new(MockWarmer)
		lister := new(MockLister)
		lister.On("Symbols", mock.Anything).Return([]string{"NVDA"}, nil)
		warmer.On("Warm", mock.Anything, []string{"NVDA"}).Return(1, nil)

		s := New(ctx, warmer, lister, nil)
		assert.Equal(t, 1, s.RunNow())
	})

	t.Run("listing failure skips the run", func(t *testing.T) {
		warmer := new(MockWarmer)
		lister := new(MockLister)
		lister.On("Symbols", mock.Anything).Return(nil, errors.New("db down"))

		s := New(ctx, warmer, lister, nil)
		assert.Equal(t, 0, s.RunNow())
		warmer.AssertNotCalled(t, "Warm", mock.Anything, mock.Anything)
	})

	t.Run("partial failures still report warmed count", func(t *testing.T) {
		warmer := new(MockWarmer)
		warmer.On("Warm", mock.Anything, []string{"A", "B"}).Return(1, errors.New("B: instrument not found"))

		s := New(ctx, warmer, nil, []string{"A", "B"})
		assert.Equal(t, 1, s.RunNow())
	})
}

func TestRegister(t *testing.T) {
	warmer := new(MockWarmer)
	ran := make(chan struct{}, 1)
	warmer.On("Warm", mock.Anything, []string{"AAPL"}).Return(1, nil).Run(func(mock.Arguments) {
		select {
		case ran <- struct{}{}:
		default:
		}
	})

	s := New(context.Background(), warmer, nil, []string{"AAPL"})
	require.Error(t, s.Register("not a cron spec"))
	require.NoError(t, s.Register("* * * * * *"))

	s.Start()
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("warm-up job did not run")
	}
}
