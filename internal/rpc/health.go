package rpc

import (
	"context"
	"encoding/json"
	"net/http"
)

// healthStatus is the /health endpoint's JSON body.
type healthStatus struct {
	Status string `json:"status"`
	Height uint64 `json:"height"`
}

// HealthHandler reports chain height as a liveness signal a load balancer
// or operator script can poll without speaking the framed protocol.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		height, err := s.engine.ChainHeight(context.Background())
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(healthStatus{Status: "error"})
			return
		}
		json.NewEncoder(w).Encode(healthStatus{Status: "ok", Height: height})
	}
}
