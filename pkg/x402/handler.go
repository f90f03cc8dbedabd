package x402

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Handler builds 402 challenges, verifies an X-PAYMENT header against a
// facilitator, and settles verified payments. It has no knowledge of
// retrieval semantics — RetrievalPipeline drives it per request.
type Handler struct {
	Facilitator       Facilitator
	Network           string
	Asset             string
	PayTo             string
	FeePayer          string
	MaxTimeoutSeconds int
}

// NewHandler constructs a Handler.
func NewHandler(facilitator Facilitator, network, asset, payTo, feePayer string, maxTimeoutSeconds int) *Handler {
	if maxTimeoutSeconds <= 0 {
		maxTimeoutSeconds = 60
	}
	return &Handler{
		Facilitator:       facilitator,
		Network:           network,
		Asset:             asset,
		PayTo:             payTo,
		FeePayer:          feePayer,
		MaxTimeoutSeconds: maxTimeoutSeconds,
	}
}

// BuildRequirements constructs the PaymentRequirements for a given total
// owed (integer base units) and resource description.
func (h *Handler) BuildRequirements(totalOwedBaseUnits int64, resource, description, mimeType string) PaymentRequirements {
	return PaymentRequirements{
		Scheme:            "exact",
		Network:           h.Network,
		Asset:             h.Asset,
		MaxAmountRequired: strconv.FormatInt(totalOwedBaseUnits, 10),
		Resource:          resource,
		Description:       description,
		MimeType:          mimeType,
		PayTo:             h.PayTo,
		MaxTimeoutSeconds: h.MaxTimeoutSeconds,
		Extra:             map[string]string{"feePayer": h.FeePayer},
	}
}

// Challenge writes a 402 response carrying the given requirements. It
// branches on Accept header between a JSON API response and a minimal
// HTML paywall page for browser callers.
func (h *Handler) Challenge(w http.ResponseWriter, r *http.Request, requirements PaymentRequirements, reason string) {
	if isBrowserRequest(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprintf(w, paywallHTML, requirements.Description, requirements.MaxAmountRequired, requirements.Asset, requirements.PayTo)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusPaymentRequired)
	body := ChallengeResponse{
		X402Version: 1,
		Error:       reason,
		Accepts:     []PaymentRequirements{requirements},
	}
	_ = json.NewEncoder(w).Encode(body)
}

const paywallHTML = `<!DOCTYPE html>
<html><head><title>Payment Required</title></head>
<body>
<h1>Payment Required</h1>
<p>%s</p>
<p>Amount: %s (asset %s)</p>
<p>Pay to: %s</p>
</body></html>`

func isBrowserRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html")
}

// ParsePaymentHeader decodes the caller-supplied X-PAYMENT header.
func ParsePaymentHeader(header string) (PaymentPayload, error) {
	if header == "" {
		return PaymentPayload{}, fmt.Errorf("x402: missing X-PAYMENT header")
	}
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return PaymentPayload{}, fmt.Errorf("x402: invalid X-PAYMENT encoding: %w", err)
	}
	var payload PaymentPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return PaymentPayload{}, fmt.Errorf("x402: invalid X-PAYMENT payload: %w", err)
	}
	return payload, nil
}

// matchesRequirements checks the caller's declared scheme/network against
// requirements before spending a facilitator round trip on a payload that
// could never satisfy them.
func matchesRequirements(payment PaymentPayload, requirements PaymentRequirements) bool {
	return payment.Scheme == requirements.Scheme && payment.Network == requirements.Network
}

// Verify decodes the caller's X-PAYMENT header, checks it against
// requirements locally, and asks the facilitator to confirm it. On any
// failure it returns a *PaymentRequiredError describing why, ready to be
// written by Challenge.
func (h *Handler) Verify(ctx context.Context, xPaymentHeader string, requirements PaymentRequirements) (PaymentPayload, error) {
	payment, err := ParsePaymentHeader(xPaymentHeader)
	if err != nil {
		return PaymentPayload{}, &PaymentRequiredError{
			Reason: err.Error(),
			Body:   ChallengeResponse{X402Version: 1, Error: err.Error(), Accepts: []PaymentRequirements{requirements}},
		}
	}

	if !matchesRequirements(payment, requirements) {
		return PaymentPayload{}, &PaymentRequiredError{
			Reason: "payment does not match requirements",
			Body:   ChallengeResponse{X402Version: 1, Error: "payment does not match requirements", Accepts: []PaymentRequirements{requirements}},
		}
	}

	result, err := h.Facilitator.Verify(ctx, payment, requirements)
	if err != nil {
		return PaymentPayload{}, &PaymentRequiredError{
			Reason: fmt.Sprintf("facilitator verify error: %v", err),
			Body:   ChallengeResponse{X402Version: 1, Error: "verification failed", Accepts: []PaymentRequirements{requirements}},
		}
	}
	if !result.IsValid {
		return PaymentPayload{}, &PaymentRequiredError{
			Reason: result.Invalid,
			Body:   ChallengeResponse{X402Version: 1, Error: result.Invalid, Accepts: []PaymentRequirements{requirements}},
		}
	}

	return payment, nil
}

// Settle asks the facilitator to settle a verified payment and returns
// the base64-encoded X-PAYMENT-RESPONSE header value on success.
func (h *Handler) Settle(ctx context.Context, payment PaymentPayload, requirements PaymentRequirements) (string, error) {
	result, err := h.Facilitator.Settle(ctx, payment, requirements)
	if err != nil {
		return "", &SettlementError{Reason: err.Error()}
	}
	if !result.Success {
		return "", &SettlementError{Reason: result.Error}
	}

	body := SettleResponse{Success: true, Transaction: result.Transaction, Network: result.Network}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal settle response: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
