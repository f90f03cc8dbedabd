package x402

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// FacilitatorVerifyResult is the facilitator's response to a /verify call.
type FacilitatorVerifyResult struct {
	IsValid bool   `json:"isValid"`
	Invalid string `json:"invalidReason,omitempty"`
}

// FacilitatorSettleResult is the facilitator's response to a /settle call.
type FacilitatorSettleResult struct {
	Success     bool   `json:"success"`
	Transaction string `json:"transaction,omitempty"`
	Network     string `json:"network,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Facilitator delegates on-chain verification and settlement to an
// external x402 facilitator service.
type Facilitator interface {
	Verify(ctx context.Context, payment PaymentPayload, requirements PaymentRequirements) (FacilitatorVerifyResult, error)
	Settle(ctx context.Context, payment PaymentPayload, requirements PaymentRequirements) (FacilitatorSettleResult, error)
}

// HTTPFacilitator calls a facilitator's /verify and /settle endpoints,
// wrapped in a circuit breaker since it is an external network dependency.
type HTTPFacilitator struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPFacilitator constructs a facilitator client. breaker may be nil
// to disable circuit breaking (e.g. in tests).
func NewHTTPFacilitator(baseURL string, breaker *gobreaker.CircuitBreaker) *HTTPFacilitator {
	return &HTTPFacilitator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		breaker: breaker,
	}
}

type facilitatorRequest struct {
	Payment      PaymentPayload       `json:"x402Payment"`
	Requirements PaymentRequirements  `json:"paymentRequirements"`
}

func (f *HTTPFacilitator) Verify(ctx context.Context, payment PaymentPayload, requirements PaymentRequirements) (FacilitatorVerifyResult, error) {
	var result FacilitatorVerifyResult
	err := f.call(ctx, "/verify", facilitatorRequest{Payment: payment, Requirements: requirements}, &result)
	return result, err
}

func (f *HTTPFacilitator) Settle(ctx context.Context, payment PaymentPayload, requirements PaymentRequirements) (FacilitatorSettleResult, error) {
	var result FacilitatorSettleResult
	err := f.call(ctx, "/settle", facilitatorRequest{Payment: payment, Requirements: requirements}, &result)
	return result, err
}

func (f *HTTPFacilitator) call(ctx context.Context, path string, body interface{}, out interface{}) error {
	do := func() (interface{}, error) {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+path, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("facilitator %s request: %w", path, err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read facilitator response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("facilitator %s: status %d: %s", path, resp.StatusCode, string(respBody))
		}
		return respBody, nil
	}

	var raw interface{}
	var err error
	if f.breaker != nil {
		raw, err = f.breaker.Execute(do)
	} else {
		raw, err = do()
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(raw.([]byte), out)
}
