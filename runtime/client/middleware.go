package client

import (
	"context"
	"log/slog"
	"time"
)

// StatementEvent describes one statement sent to the server.
type StatementEvent struct {
	Query    string
	Args     []any
	Duration time.Duration
	Error    error
	Start    time.Time
	End      time.Time
}

// Middleware intercepts statements. It must call next exactly once.
type Middleware func(ctx context.Context, event *StatementEvent, next func() error) error

// runMiddleware executes exec through the middleware chain.
func (m *Manager) runMiddleware(ctx context.Context, query string, args []any, exec func() error) error {
	event := &StatementEvent{
		Query: query,
		Args:  args,
		Start: time.Now(),
	}

	var next func() error
	index := 0

	next = func() error {
		if index >= len(m.middlewares) {
			err := exec()
			event.End = time.Now()
			event.Duration = event.End.Sub(event.Start)
			event.Error = err
			return err
		}

		mw := m.middlewares[index]
		index++
		return mw(ctx, event, next)
	}

	return next()
}

// LoggingMiddleware logs every statement at debug level. Bound values are
// counted, never logged.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(ctx context.Context, event *StatementEvent, next func() error) error {
		err := next()
		if err != nil {
			logger.DebugContext(ctx, "statement failed", "sql", event.Query, "args", len(event.Args), "error", err)
		} else {
			logger.DebugContext(ctx, "statement executed", "sql", event.Query, "args", len(event.Args), "duration", event.Duration)
		}
		return err
	}
}

// TimingMiddleware reports the duration of each statement.
func TimingMiddleware(onTiming func(query string, duration time.Duration)) Middleware {
	return func(ctx context.Context, event *StatementEvent, next func() error) error {
		err := next()
		if onTiming != nil {
			onTiming(event.Query, event.Duration)
		}
		return err
	}
}

// ErrorMiddleware reports failed statements.
func ErrorMiddleware(onError func(query string, err error)) Middleware {
	return func(ctx context.Context, event *StatementEvent, next func() error) error {
		err := next()
		if err != nil && onError != nil {
			onError(event.Query, err)
		}
		return err
	}
}
