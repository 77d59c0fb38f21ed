package eventbus

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/attainment-reports/pkg/logging"
)

type reportWritten struct {
	path string
}

type runFinished struct{}

func bufferedLogger(level logrus.Level) (*logrus.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(buf)
	log.SetLevel(level)
	return log, buf
}

func TestPublisher_NoMatchingSubscriber(t *testing.T) {
	log, buf := bufferedLogger(logrus.DebugLevel)
	bus := NewEventPublisher(log)
	bus.Subscribe(func(e *reportWritten) {
		t.Error("should not be called")
	})
	bus.Publish(&runFinished{})

	require.Contains(t, buf.String(), "eventbus.Publish: no matching subscribers")
}

func TestPublisher_Subscribe(t *testing.T) {
	bus := NewEventPublisher(logging.ConsoleLogger(logrus.WarnLevel))
	var got []string
	bus.Subscribe(func(e *reportWritten) { got = append(got, "first:"+e.path) })
	bus.Subscribe(func(e *reportWritten) { got = append(got, "second:"+e.path) })
	bus.Subscribe(func(e *runFinished) { got = append(got, "finished") })

	bus.Publish(&reportWritten{path: "NA/a.xlsx"})
	bus.Publish(&runFinished{})

	require.Equal(t, []string{"first:NA/a.xlsx", "second:NA/a.xlsx", "finished"}, got)
	require.Equal(t, 3, bus.SubscribersCount())
}

func TestPublisher_NilArgument(t *testing.T) {
	bus := NewEventPublisher(nil)
	called := false
	bus.Subscribe(func(e *reportWritten) {
		called = true
		require.Nil(t, e)
	})
	bus.Publish(nil)
	require.True(t, called)
}

func TestMatchSignature(t *testing.T) {
	require.True(t, MatchSignature(func(e *reportWritten) {}, []any{&reportWritten{}}))
	require.False(t, MatchSignature(func(e *reportWritten) {}, []any{&runFinished{}}))
	require.False(t, MatchSignature(func(e *reportWritten) {}, []any{}))
	require.False(t, MatchSignature(func(e *reportWritten) {}, []any{&reportWritten{}, &reportWritten{}}))
	require.False(t, MatchSignature("not a func", []any{}))
	require.True(t, MatchSignature(func(ctx context.Context) {}, []any{context.Background()}))
}

func TestPublisher_PanicRecovery(t *testing.T) {
	t.Parallel()

	t.Run("panic is logged and other handlers run", func(t *testing.T) {
		log, buf := bufferedLogger(logrus.ErrorLevel)
		bus := NewEventPublisher(log)

		var calls int
		bus.Subscribe(func(e *reportWritten) { calls++ })
		bus.Subscribe(func(e *reportWritten) { panic("ledger is closed") })
		bus.Subscribe(func(e *reportWritten) { calls++ })

		bus.Publish(&reportWritten{path: "x"})

		require.Equal(t, 2, calls)
		out := buf.String()
		require.Contains(t, out, "panicked")
		require.Contains(t, out, "ledger is closed")
	})

	t.Run("all handlers panicking counts as unhandled", func(t *testing.T) {
		log, buf := bufferedLogger(logrus.DebugLevel)
		bus := NewEventPublisher(log)
		bus.Subscribe(func(e *reportWritten) { panic("always") })

		bus.Publish(&reportWritten{})

		require.True(t, strings.Contains(buf.String(), "no matching subscribers"))
	})
}

func TestPublisher_SubscribeRejectsNonFunc(t *testing.T) {
	bus := NewEventPublisher(nil)
	require.Panics(t, func() { bus.Subscribe(42) })
}
