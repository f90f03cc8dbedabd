package httpserver

import (
	"net/http"

	"github.com/x402rag/gateway/internal/index"
)

// documentToIndex is one entry of a POST /docs/index request body.
type documentToIndex struct {
	Path     string  `json:"path"`
	PriceUSD float64 `json:"price_usd"`
}

type indexDocumentsRequest struct {
	Documents []documentToIndex `json:"documents"`
}

// webPageToIndex is one entry of a POST /docs/index/web request body.
type webPageToIndex struct {
	URL      string  `json:"url"`
	PriceUSD float64 `json:"price_usd"`
}

type indexWebPagesRequest struct {
	Pages []webPageToIndex `json:"pages"`
}

type indexedDocumentResponse struct {
	DocID       string `json:"doc_id"`
	Source      string `json:"source"`
	ChunksCount int    `json:"chunks_count"`
}

type indexResponse struct {
	IndexedDocuments []indexedDocumentResponse `json:"indexed_documents"`
}

func toIndexResponse(docs []index.IndexedDocument) indexResponse {
	out := make([]indexedDocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, indexedDocumentResponse{DocID: d.DocID, Source: d.Source, ChunksCount: d.ChunksCount})
	}
	return indexResponse{IndexedDocuments: out}
}

// indexDocuments handles POST /docs/index: reads each path's content
// off disk and indexes it. Authenticated, not payment-gated — indexing
// is an operator action, not a retrieval.
func (h *handlers) indexDocuments(w http.ResponseWriter, r *http.Request) {
	if _, err := h.rc.Auth.VerifyRequest(r); err != nil {
		errorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req indexDocumentsRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return
	}
	if len(req.Documents) == 0 {
		errorResponse(w, http.StatusBadRequest, "documents must not be empty")
		return
	}

	items := make([]index.Item, 0, len(req.Documents))
	for _, d := range req.Documents {
		content, err := h.rc.Loader.LoadDocument(d.Path)
		if err != nil {
			errorResponse(w, http.StatusBadRequest, "load document: "+err.Error())
			return
		}
		items = append(items, index.Item{Source: d.Path, Content: content, PriceUSD: d.PriceUSD, DocType: "document"})
	}

	docs, err := h.rc.IndexSvc.IndexDocuments(r.Context(), items)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "index documents: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toIndexResponse(docs))
}

// indexWebPages handles POST /docs/index/web: fetches each URL and
// indexes the extracted text.
func (h *handlers) indexWebPages(w http.ResponseWriter, r *http.Request) {
	if _, err := h.rc.Auth.VerifyRequest(r); err != nil {
		errorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req indexWebPagesRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return
	}
	if len(req.Pages) == 0 {
		errorResponse(w, http.StatusBadRequest, "pages must not be empty")
		return
	}

	items := make([]index.Item, 0, len(req.Pages))
	for _, p := range req.Pages {
		content, err := h.rc.Loader.LoadWebPage(r.Context(), p.URL)
		if err != nil {
			errorResponse(w, http.StatusBadRequest, "load web page: "+err.Error())
			return
		}
		items = append(items, index.Item{Source: p.URL, Content: content, PriceUSD: p.PriceUSD, DocType: "web"})
	}

	docs, err := h.rc.IndexSvc.IndexDocuments(r.Context(), items)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "index web pages: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toIndexResponse(docs))
}
