package handler

import (
	"net/http"
	"strconv"
)

// Counter は接続中の観戦者数を返します。domain.Hub が満たします。
type Counter interface {
	Len() int
}

func NewHealthHandler(spectators Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if spectators != nil {
			w.Header().Set("X-Spectators", strconv.Itoa(spectators.Len()))
		}
		w.WriteHeader(http.StatusOK)
	}
}
