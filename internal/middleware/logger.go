// Package middleware holds the HTTP middleware shared by every route.
package middleware

import (
	"net/http"
	"time"

	"github.com/lildude/strengthboard/internal/router"
	"github.com/sirupsen/logrus"
)

type httpStatusWriter struct {
	Status int
	inner  http.ResponseWriter
}

func (sw *httpStatusWriter) Header() http.Header {
	return sw.inner.Header()
}

func (sw *httpStatusWriter) WriteHeader(status int) {
	sw.Status = status
	sw.inner.WriteHeader(status)
}

func (sw *httpStatusWriter) Write(b []byte) (int, error) {
	if sw.Status == 0 {
		sw.Status = http.StatusOK
	}
	return sw.inner.Write(b)
}

// LogWith logs one line per request once it has been served.
func LogWith(l logrus.FieldLogger) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			statusWriter := &httpStatusWriter{inner: w}
			t := time.Now()

			next.ServeHTTP(statusWriter, r)
			l.WithFields(logrus.Fields{
				"method":      r.Method,
				"url":         r.URL.String(),
				"ip":          r.RemoteAddr,
				"status":      statusWriter.Status,
				"agent":       r.UserAgent(),
				"duration_ms": time.Since(t).Milliseconds(),
			}).Info("request received")
		})
	}
}
