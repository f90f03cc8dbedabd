package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/x402rag/gateway/internal/circuitbreaker"
)

var serverStartTime = time.Now()

// health returns service liveness plus the circuit-breaker state of the
// gateway's two external dependencies, so operators and clients can
// distinguish "up" from "up but the facilitator is tripped."
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	_, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	facilitatorState := h.rc.Breakers.State(circuitbreaker.ServiceFacilitator)
	solanaState := h.rc.Breakers.State(circuitbreaker.ServiceSolanaRPC)

	status := "ok"
	statusCode := http.StatusOK
	if facilitatorState == "open" {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, map[string]any{
		"status":       status,
		"uptime":       time.Since(serverStartTime).String(),
		"timestamp":    time.Now().UTC(),
		"facilitator":  facilitatorState,
		"solana_rpc":   solanaState,
	})
}
