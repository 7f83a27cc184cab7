package manager

import (
	"context"
	"time"

	"github.com/lk2023060901/xdooria-users/pkg/logger"
	"github.com/lk2023060901/xdooria-users/pkg/otel"
	"github.com/lk2023060901/xdooria-users/pkg/sentry"
)

const tracerName = "users.manager"

// Recorder 操作指标记录
type Recorder interface {
	RecordOperation(op, result string, d time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordOperation(string, string, time.Duration) {}

// Option 管理器选项
type Option func(*instrument)

// WithLogger 设置日志
func WithLogger(l logger.Logger) Option {
	return func(i *instrument) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithReporter 设置内部错误上报
func WithReporter(r sentry.Reporter) Option {
	return func(i *instrument) {
		if r != nil {
			i.reporter = r
		}
	}
}

// WithRecorder 设置指标记录
func WithRecorder(r Recorder) Option {
	return func(i *instrument) {
		if r != nil {
			i.recorder = r
		}
	}
}

// instrument 每个操作的 span、指标、日志与错误上报
type instrument struct {
	name     string
	logger   logger.Logger
	reporter sentry.Reporter
	recorder Recorder
}

func newInstrument(name string, opts []Option) instrument {
	i := instrument{
		name:     name,
		logger:   logger.Noop(),
		reporter: sentry.NoopReporter{},
		recorder: noopRecorder{},
	}
	for _, opt := range opts {
		opt(&i)
	}
	i.logger = i.logger.Named("manager." + name)
	return i
}

// begin 开始一次操作，返回的函数在操作结束时调用
func (i *instrument) begin(ctx context.Context, op string, userID int64) (context.Context, func(err error)) {
	start := time.Now()
	attrs := []otel.Attribute{otel.String(otel.SessionOpKey, i.name+"."+op)}
	if userID != 0 {
		attrs = append(attrs, otel.Int64(otel.UserIDKey, userID))
	}
	ctx, span := otel.StartSpan(ctx, tracerName, i.name+"."+op, attrs...)

	return ctx, func(err error) {
		kind := Kind(err)
		i.recorder.RecordOperation(op, kind, time.Since(start))
		span.SetAttributes(otel.String("result", kind))

		if kind != KindInternal {
			otel.EndSpan(span, nil)
			return
		}
		i.logger.ErrorContext(ctx, "operation failed", "op", op, "user_id", userID, "error", err)
		i.reporter.CaptureError(ctx, err, map[string]string{"op": i.name + "." + op})
		otel.EndSpan(span, err)
	}
}
