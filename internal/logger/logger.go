// Package logger provides request-scoped structured logging on top of logrus.
package logger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/AnshRaj112/journal-backend/pkg/clientip"
)

type contextKeyRequestLoggerType struct{}

var contextKeyRequestLogger = &contextKeyRequestLoggerType{}

const (
	requestIDLoggerKey = "requestID"
	userIDLoggerKey    = "userID"
)

// New returns a logger with full timestamps writing to out at the named level.
func New(out io.Writer, level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	formatter := new(logrus.TextFormatter)
	formatter.TimestampFormat = "2006-01-02 15:04:05"
	formatter.FullTimestamp = true

	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(formatter)
	l.SetLevel(lvl)
	return l, nil
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// WithContext stores rlog in ctx.
func WithContext(ctx context.Context, rlog *logrus.Entry) context.Context {
	return context.WithValue(ctx, contextKeyRequestLogger, rlog)
}

// FromContext returns the request logger from the context, or an entry on the
// standard logger when the context carries none.
func FromContext(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if rlog, ok := ctx.Value(contextKeyRequestLogger).(*logrus.Entry); ok {
			return rlog
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// ContextWithUserID adds the authenticated user to the request logger.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return WithContext(ctx, FromContext(ctx).WithField(userIDLoggerKey, userID))
}

// RequestID returns the request id carried by the request logger, if any.
func RequestID(ctx context.Context) string {
	if s, ok := FromContext(ctx).Data[requestIDLoggerKey].(string); ok {
		return s
	}
	return ""
}

// Middleware attaches a request logger tagged with chi's request id and
// writes one access-log line per request. The id is echoed in the
// X-Request-Id response header. It must run after middleware.RequestID.
func Middleware(base *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := middleware.GetReqID(r.Context())
			rlog := base.WithField(requestIDLoggerKey, reqID)
			ctx := WithContext(r.Context(), rlog)
			if reqID != "" {
				w.Header().Set(middleware.RequestIDHeader, reqID)
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			rlog.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      status,
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"ip":          clientip.RealClientIP(r),
			}).Info("request completed")
		})
	}
}
