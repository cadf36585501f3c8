package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/JonMunkholm/estoque-sync/internal/core"
	"github.com/JonMunkholm/estoque-sync/internal/logging"
)

const (
	statusSuccess = "sucesso"
	statusFailure = "falha"
)

const welcomeMessage = "Olá, Mundo! Meu backend profissional está no ar."

const healthTimeout = 2 * time.Second

// OutcomeResponse is the body of POST /produtos and POST /produtos/sincronizar.
type OutcomeResponse struct {
	Status   string               `json:"status"`
	Operacao string               `json:"operacao,omitempty"`
	Dados    []core.StoredProduct `json:"dados,omitempty"`
	Erro     string               `json:"erro,omitempty"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": welcomeMessage})
}

// handleHealth reports 503 while the product store is unreachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status, database, code := "ok", "ok", http.StatusOK
	if err := s.service.Ping(ctx); err != nil {
		logging.FromContext(r.Context()).Error("health check failed", "error", err)
		status, database, code = "degraded", "unreachable", http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"database":   database,
		"runs":       s.service.LimiterStatus(),
		"drive_sync": s.service.RemoteEnabled(),
	})
}

// handleListProducts serves GET /produtos?limite=N.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.service.ListProducts(r.Context(), parseIntParam(r, "limite", 0))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	if products == nil {
		products = []core.StoredProduct{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"produtos": products})
}

// handleCreateProduct serves POST /produtos: a plain insert.
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeRecord(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	out, err := s.service.CreateProduct(r.Context(), rec)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	s.respondOutcome(w, r, rec, out)
}

// handleSyncProduct serves POST /produtos/sincronizar: update by
// (codigo, loja) or insert.
func (s *Server) handleSyncProduct(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeRecord(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	out, err := s.service.SyncProduct(r.Context(), rec)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	s.respondOutcome(w, r, rec, out)
}

// respondOutcome writes a resolver outcome. Store failures are business
// results and still answer 200.
func (s *Server) respondOutcome(w http.ResponseWriter, r *http.Request, rec core.Record, out core.Outcome) {
	logger := logging.FromContext(r.Context())

	if out.OK() {
		logger.Info("product written", "codigo", rec.Code, "loja", rec.Store, "operacao", out.Label())
		writeJSON(w, http.StatusOK, OutcomeResponse{
			Status:   statusSuccess,
			Operacao: out.Label(),
			Dados:    out.Data,
		})
		return
	}

	var sf *core.StoreFailure
	if !errors.As(out.Err, &sf) {
		respondError(w, r, out.Err, http.StatusInternalServerError)
		return
	}

	logger.Warn("product write failed",
		"codigo", rec.Code,
		"loja", rec.Store,
		"operacao", out.Label(),
		"error", out.Err,
		"code", core.MapError(out.Err).Code,
	)
	writeJSON(w, http.StatusOK, OutcomeResponse{
		Status:   statusFailure,
		Operacao: out.Label(),
		Erro:     out.Reason(),
	})
}
