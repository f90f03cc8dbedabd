package httpserver

import (
	"net/http"

	"github.com/x402rag/gateway/internal/vectorstore"
)

type searchFilters struct {
	DocID   string `json:"doc_id"`
	DocType string `json:"doc_type"`
}

type searchRequest struct {
	Query   string         `json:"query"`
	K       int            `json:"k"`
	Filters *searchFilters `json:"filters"`
}

type chunkRangeRequest struct {
	DocID      string `json:"doc_id"`
	StartChunk int    `json:"start_chunk"`
	EndChunk   *int   `json:"end_chunk"`
}

// search handles POST /docs/search: authenticate, embed the query, run
// the paywalled retrieval pipeline, and write whichever response the
// pipeline produced (a 402 challenge or the settled chunk set).
func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	identity, err := h.rc.Auth.VerifyRequest(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req searchRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return
	}
	if req.Query == "" {
		errorResponse(w, http.StatusBadRequest, "query must not be empty")
		return
	}
	if req.K < 1 {
		errorResponse(w, http.StatusBadRequest, "k must be >= 1")
		return
	}

	var filter vectorstore.Filter
	if req.Filters != nil {
		filter = vectorstore.Filter{DocID: req.Filters.DocID, DocType: req.Filters.DocType}
	}

	result, _, ok, err := h.rc.Pipeline.RunSearch(r.Context(), w, r, identity, req.Query, req.K, filter)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		// The pipeline already wrote the 402 challenge response.
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// chunks handles POST /docs/chunks: authenticate, fetch the requested
// chunk range, and run it through the same paywalled pipeline.
func (h *handlers) chunks(w http.ResponseWriter, r *http.Request) {
	identity, err := h.rc.Auth.VerifyRequest(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req chunkRangeRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return
	}
	if req.DocID == "" {
		errorResponse(w, http.StatusBadRequest, "doc_id must not be empty")
		return
	}
	if req.StartChunk < 0 {
		errorResponse(w, http.StatusBadRequest, "start_chunk must be >= 0")
		return
	}

	endChunk := req.StartChunk
	if req.EndChunk != nil {
		endChunk = *req.EndChunk
	}

	result, _, ok, err := h.rc.Pipeline.RunChunkRange(r.Context(), w, r, identity, req.DocID, req.StartChunk, endChunk)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, result)
}
