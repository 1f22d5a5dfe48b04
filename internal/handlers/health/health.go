// Package health implements the liveness endpoint.
package health

import (
	"net/http"
	"time"

	"github.com/lildude/strengthboard/internal/httpx"
	"github.com/sirupsen/logrus"
)

type response struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func Handler(l logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := response{Status: "ok", Time: time.Now().UTC().Format(time.RFC3339)}
		if err := httpx.WriteJSON(w, http.StatusOK, resp); err != nil {
			l.WithError(err).Error("unable to write health response")
		}
	}
}
