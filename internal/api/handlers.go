package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ventlogic/ventlogic-core/internal/engine"
	"github.com/ventlogic/ventlogic-core/internal/matrix"
)

// handleListTargets returns the current target population from the
// discovery chain. The wizard's device list is driven by this endpoint.
func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	targets := s.discovery.ListTargets(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"targets": targets,
		"count":   len(targets),
	})
}

// handleListFeatures returns every declared feature descriptor in
// declaration order.
func (s *Server) handleListFeatures(w http.ResponseWriter, _ *http.Request) {
	features := s.registry.Features()
	writeJSON(w, http.StatusOK, map[string]any{
		"features": features,
		"count":    len(features),
	})
}

// handleGetMatrix returns the full decision matrix, including explicit
// disables and rows for targets not currently discovered.
func (s *Server) handleGetMatrix(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"matrix": s.store.View(),
	})
}

// setCellRequest is the body for PUT /matrix/{target}/{feature}.
type setCellRequest struct {
	Enabled bool `json:"enabled"`
}

// handleSetMatrixCell records one operator decision. The matrix is
// persisted before the endpoint returns; applying the change is a
// separate call to /reconcile/apply, mirroring the wizard's
// choose-then-confirm flow.
func (s *Server) handleSetMatrixCell(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "target")
	featureID := chi.URLParam(r, "feature")

	if targetID == "" {
		writeBadRequest(w, "target id is required")
		return
	}
	if !s.registry.Has(featureID) {
		writeNotFound(w, "unknown feature: "+featureID)
		return
	}

	var req setCellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	if err := s.reconciler.SetFeature(r.Context(), targetID, featureID, req.Enabled); err != nil {
		if errors.Is(err, matrix.ErrPersistFailed) {
			s.logger.Error("matrix persist failed", "target", targetID, "feature", featureID, "error", err)
			writeInternalError(w, "decision could not be saved; nothing was changed")
			return
		}
		writeInternalError(w, "failed to update matrix")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"target":  targetID,
		"feature": featureID,
		"enabled": req.Enabled,
	})
}

// handlePreview builds a fresh catalog and plan without touching any
// resource. The wizard shows the rendered summary at its confirmation
// step.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	p, summary := s.reconciler.Preview(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"plan":     p,
		"summary":  summary,
		"rendered": summary.Render(s.summaryLimit),
	})
}

// handleApply runs a full reconciliation cycle and returns the
// execution report. Partial failures are report entries, not HTTP
// errors.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	report := s.reconciler.Reconcile(r.Context(), engine.TriggerConfirm)
	writeJSON(w, http.StatusOK, report)
}
