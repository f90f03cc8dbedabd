package retrieval

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/x402rag/gateway/internal/auth"
	"github.com/x402rag/gateway/internal/ledger"
	"github.com/x402rag/gateway/internal/vectorstore"
	"github.com/x402rag/gateway/pkg/x402"
)

// Pipeline drives a single paywalled retrieval request end to end for a
// caller the HTTP handler has already authenticated: retrieve the
// candidate chunks, diff them
// against the purchase ledger, and — only for the chunks still owed —
// run the x402 challenge/verify/settle cycle before recording the sale.
//
// A request for chunks the wallet has already purchased never touches
// the facilitator at all.
type Pipeline struct {
	Retrieval *Service
	Ledger    ledger.Ledger
	Payments  *x402.Handler
}

// NewPipeline constructs a Pipeline.
func NewPipeline(retrieval *Service, purchaseLedger ledger.Ledger, payments *x402.Handler) *Pipeline {
	return &Pipeline{Retrieval: retrieval, Ledger: purchaseLedger, Payments: payments}
}

// Outcome describes how a paywalled request was resolved, for logging
// and metrics.
type Outcome int

const (
	// OutcomeFree means every requested chunk had already been paid for.
	OutcomeFree Outcome = iota
	// OutcomeChallenge means payment was required and a 402 was issued.
	OutcomeChallenge
	// OutcomeSettled means payment was verified and settled.
	OutcomeSettled
)

// RunSearch executes the full pipeline for a similarity search request.
// identity is the caller resolved by an auth.Verifier. On success it
// returns the full chunk set (paid and newly-settled) and the outcome.
// If payment is still owed it writes a 402 response and returns
// ok=false — the caller must not write anything further.
func (p *Pipeline) RunSearch(ctx context.Context, w http.ResponseWriter, r *http.Request, identity auth.Identity, query string, k int, filter vectorstore.Filter) (SearchResult, Outcome, bool, error) {
	chunks, err := p.Retrieval.Search(ctx, query, k, filter)
	if err != nil {
		return SearchResult{}, 0, false, fmt.Errorf("search: %w", err)
	}

	settled, outcome, ok, err := p.settle(ctx, w, r, identity, chunks, fmt.Sprintf("search: %s", query))
	if err != nil || !ok {
		return SearchResult{}, outcome, ok, err
	}

	results := toChunkResults(settled)
	return SearchResult{Chunks: results, Total: len(results)}, outcome, true, nil
}

// RunChunkRange executes the full pipeline for a chunk-range fetch.
func (p *Pipeline) RunChunkRange(ctx context.Context, w http.ResponseWriter, r *http.Request, identity auth.Identity, docID string, startChunk, endChunk int) (ChunkRangeResult, Outcome, bool, error) {
	chunks, err := p.Retrieval.GetChunkRange(ctx, docID, startChunk, endChunk)
	if err != nil {
		return ChunkRangeResult{}, 0, false, fmt.Errorf("get chunk range: %w", err)
	}

	description := fmt.Sprintf("chunks %d-%d of document %s", startChunk, endChunk, docID)
	settled, outcome, ok, err := p.settle(ctx, w, r, identity, chunks, description)
	if err != nil || !ok {
		return ChunkRangeResult{}, outcome, ok, err
	}

	results := toChunkResults(settled)
	return ChunkRangeResult{DocID: docID, Chunks: results, Total: len(results)}, outcome, true, nil
}

// settle diffs retrieved chunks against the ledger and runs the
// challenge/verify/settle cycle for whatever remains unpaid. It
// returns the full set of chunks the caller is entitled to see.
func (p *Pipeline) settle(ctx context.Context, w http.ResponseWriter, r *http.Request, identity auth.Identity, chunks []vectorstore.Chunk, description string) ([]vectorstore.Chunk, Outcome, bool, error) {
	if len(chunks) == 0 {
		return chunks, OutcomeFree, true, nil
	}

	byID := make(map[uuid.UUID]vectorstore.Chunk, len(chunks))
	ids := make([]uuid.UUID, 0, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	unpaidIDs, _, err := p.Ledger.Split(ctx, identity.Wallet, ids)
	if err != nil {
		return nil, 0, false, fmt.Errorf("split ledger: %w", err)
	}

	if len(unpaidIDs) == 0 {
		return chunks, OutcomeFree, true, nil
	}

	var totalOwed int64
	for _, id := range unpaidIDs {
		totalOwed += byID[id].PriceBase
	}

	if totalOwed == 0 {
		// Priced at zero (e.g. free document) — unlock without payment
		// but still record the grant so it isn't re-evaluated.
		if err := p.Ledger.Record(ctx, identity.Wallet, unpaidIDs); err != nil {
			return nil, 0, false, fmt.Errorf("record free chunks: %w", err)
		}
		return chunks, OutcomeFree, true, nil
	}

	requirements := p.Payments.BuildRequirements(totalOwed, r.URL.RequestURI(), description, "application/json")

	xPayment := r.Header.Get("X-PAYMENT")
	if xPayment == "" {
		p.Payments.Challenge(w, r, requirements, "payment required")
		return nil, OutcomeChallenge, false, nil
	}

	payment, err := p.Payments.Verify(ctx, xPayment, requirements)
	if err != nil {
		p.writeChallenge(w, r, err)
		return nil, OutcomeChallenge, false, nil
	}

	responseHeader, err := p.Payments.Settle(ctx, payment, requirements)
	if err != nil {
		http.Error(w, err.Error(), http.StatusPaymentRequired)
		return nil, OutcomeChallenge, false, nil
	}
	w.Header().Set("X-PAYMENT-RESPONSE", responseHeader)

	if err := p.Ledger.Record(ctx, identity.Wallet, unpaidIDs); err != nil {
		return nil, 0, false, fmt.Errorf("record purchases: %w", err)
	}

	return chunks, OutcomeSettled, true, nil
}

func (p *Pipeline) writeChallenge(w http.ResponseWriter, r *http.Request, err error) {
	if pre, ok := err.(*x402.PaymentRequiredError); ok {
		if len(pre.Body.Accepts) > 0 {
			p.Payments.Challenge(w, r, pre.Body.Accepts[0], pre.Reason)
			return
		}
	}
	http.Error(w, err.Error(), http.StatusPaymentRequired)
}
