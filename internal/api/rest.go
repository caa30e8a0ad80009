package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/alpenava/nayax-bridge/internal/models"
)

// CoordinatorView is the read-only slice of the coordinator the HTTP
// surface consumes. It is safe to call concurrently with the poll cycle.
type CoordinatorView interface {
	Machines() map[string]models.Machine
	GetLastSale(machineID string) (models.Transaction, bool)
	GetPeriodTotal(machineID, period string) models.PeriodTotal
}

type Handler struct {
	view CoordinatorView
	log  *zap.Logger
}

// NewHTTPHandler builds the pull-based read API over the coordinator's
// accessors.
func NewHTTPHandler(view CoordinatorView, log *zap.Logger) http.Handler {
	h := &Handler{view: view, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", h.handlePing)
	mux.HandleFunc("GET /machines", h.handleMachines)
	mux.HandleFunc("GET /machines/{id}/last-sale", h.handleLastSale)
	mux.HandleFunc("GET /machines/{id}/periods/{period}", h.handlePeriodTotal)

	return mux
}

func (h *Handler) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"msg": "pong from nayax-bridge"})
}

func (h *Handler) handleMachines(w http.ResponseWriter, _ *http.Request) {
	machines := h.view.Machines()
	out := make([]models.Machine, 0, len(machines))
	for _, m := range machines {
		out = append(out, m)
	}
	writeJSON(w, http.StatusOK, map[string]any{"machines": out})
}

func (h *Handler) handleLastSale(w http.ResponseWriter, r *http.Request) {
	machineID := r.PathValue("id")
	sale, ok := h.view.GetLastSale(machineID)
	if !ok {
		h.writeError(w, http.StatusNotFound, "no sales recorded for machine")
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

func (h *Handler) handlePeriodTotal(w http.ResponseWriter, r *http.Request) {
	machineID := r.PathValue("id")
	period := r.PathValue("period")
	writeJSON(w, http.StatusOK, h.view.GetPeriodTotal(machineID, period))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
	h.log.Debug("http error response", zap.Int("status", status), zap.String("msg", msg))
}
