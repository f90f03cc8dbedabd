package ragclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/x402rag/gateway/pkg/x402"
)

type fakePayer struct {
	header string
	err    error
}

func (f *fakePayer) BuildFromChallenge(_ context.Context, challenge x402.ChallengeResponse) (string, string, string, error) {
	if f.err != nil {
		return "", "", "", f.err
	}
	return f.header, challenge.Accepts[0].MaxAmountRequired, challenge.Accepts[0].PayTo, nil
}

func TestClient_Search_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/docs/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SearchResult{
			Chunks: []Chunk{{Text: "hello", Metadata: ChunkMetadata{ChunkID: "c1", DocID: "d1"}}},
			Total:  1,
		})
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	result, err := client.Search(context.Background(), "hello", 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 1 || len(result.Chunks) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestClient_Search_PaysOn402ThenRetries(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusPaymentRequired)
			_ = json.NewEncoder(w).Encode(x402.ChallengeResponse{
				X402Version: 1,
				Error:       "payment required",
				Accepts: []x402.PaymentRequirements{
					{Scheme: "exact", Network: "solana-devnet", Asset: "mint", MaxAmountRequired: "1000", PayTo: "payTo"},
				},
			})
			return
		}
		if r.Header.Get("X-PAYMENT") == "" {
			t.Error("expected X-PAYMENT header on retry")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SearchResult{Chunks: []Chunk{{Metadata: ChunkMetadata{ChunkID: "c1"}}}, Total: 1})
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, Payer: &fakePayer{header: "cGF5bG9hZA=="}})
	result, err := client.Search(context.Background(), "hello", 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls (challenge + retry), got %d", calls)
	}
	if result.Total != 1 {
		t.Errorf("expected 1 result after retry, got %d", result.Total)
	}
}

func TestClient_Search_NoPayerReturnsPaymentError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(x402.ChallengeResponse{X402Version: 1, Accepts: []x402.PaymentRequirements{{}}})
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	_, err := client.Search(context.Background(), "hello", 5, nil)
	if err == nil {
		t.Fatal("expected error when no payer is configured")
	}
	if _, ok := err.(*PaymentError); !ok {
		t.Fatalf("expected *PaymentError, got %T", err)
	}
}

func TestClient_Search_SecondChallengeIsNotRetried(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(x402.ChallengeResponse{
			X402Version: 1,
			Accepts:     []x402.PaymentRequirements{{Scheme: "exact", MaxAmountRequired: "1000", PayTo: "payTo"}},
		})
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, Payer: &fakePayer{header: "cGF5bG9hZA=="}})
	_, err := client.Search(context.Background(), "hello", 5, nil)
	if err == nil {
		t.Fatal("expected error on repeated 402")
	}
	if _, ok := err.(*PaymentError); !ok {
		t.Fatalf("expected *PaymentError, got %T", err)
	}
	if calls != 2 {
		t.Errorf("expected exactly 2 calls (initial + one retry, no further retries), got %d", calls)
	}
}

func TestClient_Search_AttachesAuthorizationHeaderWhenWalletConfigured(t *testing.T) {
	wallet, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("generate wallet: %v", err)
	}

	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SearchResult{Total: 0})
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, Wallet: wallet})
	if _, err := client.Search(context.Background(), "hello", 5, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(gotHeader, "Solana ") {
		t.Fatalf("expected Authorization header with Solana prefix, got %q", gotHeader)
	}
}

func TestClient_Search_NoAuthorizationHeaderWithoutWallet(t *testing.T) {
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SearchResult{Total: 0})
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	if _, err := client.Search(context.Background(), "hello", 5, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotHeader != "" {
		t.Fatalf("expected no Authorization header without a configured wallet, got %q", gotHeader)
	}
}

func TestClient_IndexDocs_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "boom"})
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	_, err := client.IndexDocs(context.Background(), []DocumentToIndex{{Path: "/tmp/a.txt", PriceUSD: 0.01}})
	if err == nil {
		t.Fatal("expected error")
	}
	httpErr, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("expected *HTTPError, got %T", err)
	}
	if httpErr.StatusCode != 500 || httpErr.Detail != "boom" {
		t.Errorf("unexpected error detail: %+v", httpErr)
	}
}
