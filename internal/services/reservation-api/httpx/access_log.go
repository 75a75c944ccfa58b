package httpx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/NordCoder/Chateaux/internal/obs"
	"go.uber.org/zap"
)

type statusWriter struct {
	http.ResponseWriter
	code        int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.code = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// AccessLog logs every request and records the HTTP metrics. route maps a
// request onto a low-cardinality label; nil falls back to the raw path.
func AccessLog(log *zap.Logger, route func(*http.Request) string) Stage {
	if log == nil {
		log = zap.NewNop()
	}
	if route == nil {
		route = func(r *http.Request) string { return r.URL.Path }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			done := obs.HTTPStarted()
			sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(sw, r)

			elapsed := time.Since(start)
			label := route(r)
			if label == "" {
				label = "unmatched"
			}
			done(r.Method, label, strconv.Itoa(sw.code), elapsed.Seconds())

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.code),
				zap.Duration("duration", elapsed),
				zap.String("request_id", RequestIDFromCtx(r.Context())),
			}
			l := obs.WithTrace(r.Context(), log)
			if sw.code >= http.StatusInternalServerError {
				l.Warn("http request", fields...)
				return
			}
			l.Info("http request", fields...)
		})
	}
}
