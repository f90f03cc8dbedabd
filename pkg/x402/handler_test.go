package x402

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeFacilitator struct {
	verifyResult FacilitatorVerifyResult
	verifyErr    error
	settleResult FacilitatorSettleResult
	settleErr    error
}

func (f *fakeFacilitator) Verify(_ context.Context, _ PaymentPayload, _ PaymentRequirements) (FacilitatorVerifyResult, error) {
	return f.verifyResult, f.verifyErr
}

func (f *fakeFacilitator) Settle(_ context.Context, _ PaymentPayload, _ PaymentRequirements) (FacilitatorSettleResult, error) {
	return f.settleResult, f.settleErr
}

func encodePayment(t *testing.T, payload PaymentPayload) string {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return base64.StdEncoding.EncodeToString(data)
}

func TestHandler_Challenge_JSON(t *testing.T) {
	h := NewHandler(&fakeFacilitator{}, "solana-devnet", "USDC", "payTo", "feePayer", 60)
	requirements := h.BuildRequirements(1000, "/docs/chunks", "chunk access", "application/json")

	req := httptest.NewRequest(http.MethodGet, "/docs/chunks", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	h.Challenge(rec, req, requirements, "payment required")

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected status 402, got %d", rec.Code)
	}
	var body ChallengeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error != "payment required" {
		t.Errorf("expected error message preserved, got %q", body.Error)
	}
	if len(body.Accepts) != 1 || body.Accepts[0].MaxAmountRequired != "1000" {
		t.Errorf("expected requirements echoed back, got %+v", body.Accepts)
	}
}

func TestHandler_Challenge_HTML(t *testing.T) {
	h := NewHandler(&fakeFacilitator{}, "solana-devnet", "USDC", "payTo", "feePayer", 60)
	requirements := h.BuildRequirements(500, "/docs/chunks", "chunk access", "text/html")

	req := httptest.NewRequest(http.MethodGet, "/docs/chunks", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	rec := httptest.NewRecorder()

	h.Challenge(rec, req, requirements, "payment required")

	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("expected html content type, got %q", ct)
	}
}

func TestHandler_Verify_MissingHeader(t *testing.T) {
	h := NewHandler(&fakeFacilitator{}, "solana-devnet", "USDC", "payTo", "feePayer", 60)
	requirements := h.BuildRequirements(1000, "/docs/chunks", "chunk access", "application/json")

	_, err := h.Verify(context.Background(), "", requirements)
	if err == nil {
		t.Fatal("expected error for missing header")
	}
	if _, ok := err.(*PaymentRequiredError); !ok {
		t.Fatalf("expected *PaymentRequiredError, got %T", err)
	}
}

func TestHandler_Verify_InvalidPayment(t *testing.T) {
	facilitator := &fakeFacilitator{verifyResult: FacilitatorVerifyResult{IsValid: false, Invalid: "insufficient funds"}}
	h := NewHandler(facilitator, "solana-devnet", "USDC", "payTo", "feePayer", 60)
	requirements := h.BuildRequirements(1000, "/docs/chunks", "chunk access", "application/json")

	header := encodePayment(t, PaymentPayload{X402Version: 1, Scheme: "exact", Network: "solana-devnet"})

	_, err := h.Verify(context.Background(), header, requirements)
	if err == nil {
		t.Fatal("expected error for invalid payment")
	}
	pre, ok := err.(*PaymentRequiredError)
	if !ok {
		t.Fatalf("expected *PaymentRequiredError, got %T", err)
	}
	if pre.Reason != "insufficient funds" {
		t.Errorf("expected facilitator reason surfaced, got %q", pre.Reason)
	}
}

func TestHandler_Verify_MismatchedNetworkFailsLocally(t *testing.T) {
	facilitator := &fakeFacilitator{verifyResult: FacilitatorVerifyResult{IsValid: true}}
	h := NewHandler(facilitator, "solana-devnet", "USDC", "payTo", "feePayer", 60)
	requirements := h.BuildRequirements(1000, "/docs/chunks", "chunk access", "application/json")

	header := encodePayment(t, PaymentPayload{X402Version: 1, Scheme: "exact", Network: "solana-mainnet"})

	_, err := h.Verify(context.Background(), header, requirements)
	if err == nil {
		t.Fatal("expected error for a payload declaring a different network than required")
	}
	pre, ok := err.(*PaymentRequiredError)
	if !ok {
		t.Fatalf("expected *PaymentRequiredError, got %T", err)
	}
	if pre.Reason != "payment does not match requirements" {
		t.Errorf("expected local mismatch reason, got %q", pre.Reason)
	}
}

func TestHandler_Verify_Valid(t *testing.T) {
	facilitator := &fakeFacilitator{verifyResult: FacilitatorVerifyResult{IsValid: true}}
	h := NewHandler(facilitator, "solana-devnet", "USDC", "payTo", "feePayer", 60)
	requirements := h.BuildRequirements(1000, "/docs/chunks", "chunk access", "application/json")

	header := encodePayment(t, PaymentPayload{X402Version: 1, Scheme: "exact", Network: "solana-devnet"})

	payload, err := h.Verify(context.Background(), header, requirements)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Scheme != "exact" {
		t.Errorf("expected decoded payload preserved, got %+v", payload)
	}
}

func TestHandler_Settle_Success(t *testing.T) {
	facilitator := &fakeFacilitator{settleResult: FacilitatorSettleResult{Success: true, Transaction: "sig123", Network: "solana-devnet"}}
	h := NewHandler(facilitator, "solana-devnet", "USDC", "payTo", "feePayer", 60)
	requirements := h.BuildRequirements(1000, "/docs/chunks", "chunk access", "application/json")

	header, err := h.Settle(context.Background(), PaymentPayload{X402Version: 1, Scheme: "exact"}, requirements)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		t.Fatalf("decode X-PAYMENT-RESPONSE: %v", err)
	}
	var resp SettleResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("unmarshal settle response: %v", err)
	}
	if !resp.Success || resp.Transaction != "sig123" {
		t.Errorf("expected successful settle response, got %+v", resp)
	}
}

func TestHandler_Settle_Failure(t *testing.T) {
	facilitator := &fakeFacilitator{settleResult: FacilitatorSettleResult{Success: false, Error: "blockhash expired"}}
	h := NewHandler(facilitator, "solana-devnet", "USDC", "payTo", "feePayer", 60)
	requirements := h.BuildRequirements(1000, "/docs/chunks", "chunk access", "application/json")

	_, err := h.Settle(context.Background(), PaymentPayload{X402Version: 1, Scheme: "exact"}, requirements)
	if err == nil {
		t.Fatal("expected settlement error")
	}
	if _, ok := err.(*SettlementError); !ok {
		t.Fatalf("expected *SettlementError, got %T", err)
	}
}
