package httpserver

import (
	"encoding/json"
	"net/http"
)

// WellKnownPaymentOptions is the /.well-known/payment-options response.
// Follows the RFC 8615 well-known URI convention so agent clients can
// discover the gateway's paywalled endpoints and x402 payment config
// without prior knowledge of this particular deployment.
type WellKnownPaymentOptions struct {
	Version   string                   `json:"version"`
	Server    string                   `json:"server"`
	Resources []WellKnownResourceEntry `json:"resources"`
	Payment   WellKnownPaymentInfo     `json:"payment"`
}

// WellKnownResourceEntry describes one paywalled retrieval endpoint.
type WellKnownResourceEntry struct {
	ID          string `json:"id"`
	Method      string `json:"method"`
	Endpoint    string `json:"endpoint"`
	Description string `json:"description"`
}

// WellKnownPaymentInfo describes supported payment methods.
type WellKnownPaymentInfo struct {
	Methods []string    `json:"methods"`
	X402    *X402Config `json:"x402,omitempty"`
}

// X402Config describes x402 payment configuration.
type X402Config struct {
	Network  string `json:"network"`
	Asset    string `json:"asset"`
	PayTo    string `json:"payTo"`
	Scheme   string `json:"scheme"`
}

// wellKnownPaymentOptions handles GET /.well-known/payment-options,
// describing the gateway's two paywalled retrieval endpoints and the
// x402 requirements a client needs to build a payment for either.
func (h *handlers) wellKnownPaymentOptions(w http.ResponseWriter, r *http.Request) {
	prefix := h.rc.Config.Server.RoutePrefix

	response := WellKnownPaymentOptions{
		Version: "1.0",
		Server:  "x402-retrieval-gateway",
		Resources: []WellKnownResourceEntry{
			{
				ID:          "search",
				Method:      http.MethodPost,
				Endpoint:    prefix + "/docs/search",
				Description: "Similarity search over indexed chunks, priced per chunk returned.",
			},
			{
				ID:          "chunks",
				Method:      http.MethodPost,
				Endpoint:    prefix + "/docs/chunks",
				Description: "Fetch a chunk range of a known document, priced per chunk returned.",
			},
		},
		Payment: WellKnownPaymentInfo{
			Methods: []string{"x402-solana-spl-transfer"},
			X402: &X402Config{
				Network: h.rc.Config.Solana.Network,
				Asset:   h.rc.Config.Solana.USDCMint,
				PayTo:   h.rc.Config.Solana.PayToAddress,
				Scheme:  "exact",
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, `{"detail":"encoding failed"}`, http.StatusInternalServerError)
	}
}
