package retrieval

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/x402rag/gateway/internal/auth"
	"github.com/x402rag/gateway/internal/chunking"
	"github.com/x402rag/gateway/internal/ledger"
	"github.com/x402rag/gateway/internal/vectorstore"
	"github.com/x402rag/gateway/pkg/x402"
)

type fakeEmbedder struct{ dims int }

func (f fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = make([]float64, f.dims)
	}
	return out, nil
}
func (f fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float64, error) {
	return make([]float64, f.dims), nil
}
func (f fakeEmbedder) Dimensions() int { return f.dims }

type fakeFacilitator struct {
	verifyValid bool
	settleOK    bool
}

func (f *fakeFacilitator) Verify(_ context.Context, _ x402.PaymentPayload, _ x402.PaymentRequirements) (x402.FacilitatorVerifyResult, error) {
	return x402.FacilitatorVerifyResult{IsValid: f.verifyValid, Invalid: "insufficient"}, nil
}

func (f *fakeFacilitator) Settle(_ context.Context, _ x402.PaymentPayload, _ x402.PaymentRequirements) (x402.FacilitatorSettleResult, error) {
	if !f.settleOK {
		return x402.FacilitatorSettleResult{Success: false, Error: "settlement declined"}, nil
	}
	return x402.FacilitatorSettleResult{Success: true, Transaction: "sig", Network: "solana-devnet"}, nil
}

func seedChunk(t *testing.T, idx vectorstore.Index, docID string, i int, priceBase int64) uuid.UUID {
	t.Helper()
	id := chunking.ChunkID(docID, i)
	err := idx.Add(context.Background(), []vectorstore.Chunk{{
		ID:        id,
		Text:      "chunk text",
		Embedding: []float64{1, 0, 0, 0},
		DocID:     docID,
		DocType:   "document",
		Source:    docID,
		ChunkIdx:  i,
		PriceBase: priceBase,
	}})
	if err != nil {
		t.Fatalf("seed chunk: %v", err)
	}
	return id
}

func encodedPayment(t *testing.T) string {
	t.Helper()
	return "eyJ4NDAyVmVyc2lvbiI6MSwic2NoZW1lIjoiZXhhY3QiLCJuZXR3b3JrIjoic29sYW5hLWRldm5ldCIsInBheWxvYWQiOnsidHJhbnNhY3Rpb24iOiIifX0="
}

func TestPipeline_RunChunkRange_FreeWhenAlreadyPaid(t *testing.T) {
	idx := vectorstore.NewMemoryIndex()
	docID := chunking.DocID("https://example.com/doc")
	chunkID := seedChunk(t, idx, docID, 0, 1000)

	memLedger := ledger.NewMemoryLedger()
	if err := memLedger.Record(context.Background(), "wallet1", []uuid.UUID{chunkID}); err != nil {
		t.Fatalf("pre-record: %v", err)
	}

	facilitator := &fakeFacilitator{verifyValid: true, settleOK: true}
	handler := x402.NewHandler(facilitator, "solana-devnet", "USDC", "payTo", "feePayer", 60)
	retrievalSvc := NewService(fakeEmbedder{dims: 4}, idx, 10)
	pipeline := NewPipeline(retrievalSvc, memLedger, handler)

	req := httptest.NewRequest(http.MethodPost, "/docs/chunks", nil)
	rec := httptest.NewRecorder()

	result, outcome, ok, err := pipeline.RunChunkRange(context.Background(), rec, req, auth.Identity{Wallet: "wallet1"}, docID, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true when already paid")
	}
	if outcome != OutcomeFree {
		t.Errorf("expected OutcomeFree, got %v", outcome)
	}
	if result.Total != 1 {
		t.Errorf("expected 1 chunk returned, got %d", result.Total)
	}
}

func TestPipeline_RunChunkRange_ChallengesWhenUnpaid(t *testing.T) {
	idx := vectorstore.NewMemoryIndex()
	docID := chunking.DocID("https://example.com/doc2")
	seedChunk(t, idx, docID, 0, 1000)

	memLedger := ledger.NewMemoryLedger()
	facilitator := &fakeFacilitator{verifyValid: true, settleOK: true}
	handler := x402.NewHandler(facilitator, "solana-devnet", "USDC", "payTo", "feePayer", 60)
	retrievalSvc := NewService(fakeEmbedder{dims: 4}, idx, 10)
	pipeline := NewPipeline(retrievalSvc, memLedger, handler)

	req := httptest.NewRequest(http.MethodPost, "/docs/chunks", nil)
	rec := httptest.NewRecorder()

	_, outcome, ok, err := pipeline.RunChunkRange(context.Background(), rec, req, auth.Identity{Wallet: "wallet2"}, docID, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false when payment still owed")
	}
	if outcome != OutcomeChallenge {
		t.Errorf("expected OutcomeChallenge, got %v", outcome)
	}
	if rec.Code != http.StatusPaymentRequired {
		t.Errorf("expected 402, got %d", rec.Code)
	}
}

func TestPipeline_RunChunkRange_SettlesWithValidPayment(t *testing.T) {
	idx := vectorstore.NewMemoryIndex()
	docID := chunking.DocID("https://example.com/doc3")
	seedChunk(t, idx, docID, 0, 1000)

	memLedger := ledger.NewMemoryLedger()
	facilitator := &fakeFacilitator{verifyValid: true, settleOK: true}
	handler := x402.NewHandler(facilitator, "solana-devnet", "USDC", "payTo", "feePayer", 60)
	retrievalSvc := NewService(fakeEmbedder{dims: 4}, idx, 10)
	pipeline := NewPipeline(retrievalSvc, memLedger, handler)

	req := httptest.NewRequest(http.MethodPost, "/docs/chunks", nil)
	req.Header.Set("X-PAYMENT", encodedPayment(t))
	rec := httptest.NewRecorder()

	result, outcome, ok, err := pipeline.RunChunkRange(context.Background(), rec, req, auth.Identity{Wallet: "wallet3"}, docID, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true after settlement")
	}
	if outcome != OutcomeSettled {
		t.Errorf("expected OutcomeSettled, got %v", outcome)
	}
	if result.Total != 1 {
		t.Errorf("expected 1 chunk, got %d", result.Total)
	}
	if rec.Header().Get("X-PAYMENT-RESPONSE") == "" {
		t.Error("expected X-PAYMENT-RESPONSE header to be set")
	}

	paid, err := memLedger.PaidSubset(context.Background(), "wallet3", []uuid.UUID{chunking.ChunkID(docID, 0)})
	if err != nil {
		t.Fatalf("paid subset: %v", err)
	}
	if !paid[chunking.ChunkID(docID, 0)] {
		t.Error("expected chunk to be recorded as paid after settlement")
	}
}

func TestPipeline_RunChunkRange_RejectsInvalidPayment(t *testing.T) {
	idx := vectorstore.NewMemoryIndex()
	docID := chunking.DocID("https://example.com/doc4")
	seedChunk(t, idx, docID, 0, 1000)

	memLedger := ledger.NewMemoryLedger()
	facilitator := &fakeFacilitator{verifyValid: false}
	handler := x402.NewHandler(facilitator, "solana-devnet", "USDC", "payTo", "feePayer", 60)
	retrievalSvc := NewService(fakeEmbedder{dims: 4}, idx, 10)
	pipeline := NewPipeline(retrievalSvc, memLedger, handler)

	req := httptest.NewRequest(http.MethodPost, "/docs/chunks", nil)
	req.Header.Set("X-PAYMENT", encodedPayment(t))
	rec := httptest.NewRecorder()

	_, outcome, ok, err := pipeline.RunChunkRange(context.Background(), rec, req, auth.Identity{Wallet: "wallet4"}, docID, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for invalid payment")
	}
	if outcome != OutcomeChallenge {
		t.Errorf("expected OutcomeChallenge, got %v", outcome)
	}
	if rec.Code != http.StatusPaymentRequired {
		t.Errorf("expected 402, got %d", rec.Code)
	}
}

func TestPipeline_RunSearch_FreeWhenZeroResults(t *testing.T) {
	idx := vectorstore.NewMemoryIndex()
	memLedger := ledger.NewMemoryLedger()
	facilitator := &fakeFacilitator{}
	handler := x402.NewHandler(facilitator, "solana-devnet", "USDC", "payTo", "feePayer", 60)
	retrievalSvc := NewService(fakeEmbedder{dims: 4}, idx, 10)
	pipeline := NewPipeline(retrievalSvc, memLedger, handler)

	req := httptest.NewRequest(http.MethodPost, "/docs/search", nil)
	rec := httptest.NewRecorder()

	result, outcome, ok, err := pipeline.RunSearch(context.Background(), rec, req, auth.Identity{Wallet: "wallet5"}, "anything", 5, vectorstore.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || outcome != OutcomeFree {
		t.Fatalf("expected free short-circuit on empty index, got ok=%v outcome=%v", ok, outcome)
	}
	if result.Total != 0 {
		t.Errorf("expected 0 results, got %d", result.Total)
	}
}
