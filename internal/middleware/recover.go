package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/lildude/strengthboard/internal/router"
	"github.com/sirupsen/logrus"
)

func Recover(l logrus.FieldLogger) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					l.WithFields(logrus.Fields{
						"error":       err,
						"method":      r.Method,
						"url":         r.URL.String(),
						"remote_addr": r.RemoteAddr,
						"stack_trace": string(debug.Stack()),
					}).Error("internal server error")

					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
