// Package api exposes the engine over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/takkaros/brave-market-buddy-sub000/internal/domain"
	"github.com/takkaros/brave-market-buddy-sub000/internal/engine"
	enginerr "github.com/takkaros/brave-market-buddy-sub000/internal/errors"
	"github.com/takkaros/brave-market-buddy-sub000/internal/sizing"
	"github.com/takkaros/brave-market-buddy-sub000/pkg/utils"
)

type Handler struct {
	engine    *engine.Engine
	accountID string
}

func NewHandler(e *engine.Engine, accountID string) *Handler {
	return &Handler{engine: e, accountID: accountID}
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/health", h.healthCheck).Methods("GET")
	r.HandleFunc("/api/orders", h.submitOrder).Methods("POST")
	r.HandleFunc("/api/orders/{id}", h.getOrder).Methods("GET")
	r.HandleFunc("/api/orders/{id}", h.cancelOrder).Methods("DELETE")
	r.HandleFunc("/api/positions", h.listPositions).Methods("GET")
	r.HandleFunc("/api/trades", h.listTrades).Methods("GET")
	r.HandleFunc("/api/risk/validate", h.validateRisk).Methods("POST")
	r.HandleFunc("/api/sizing", h.positionSize).Methods("POST")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *Handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	var intent domain.OrderIntent
	if err := json.NewDecoder(r.Body).Decode(&intent); err != nil {
		utils.Logger.Error("Failed to decode request", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if intent.AccountID == "" {
		intent.AccountID = h.accountID
	}

	result, err := h.engine.SubmitOrder(r.Context(), intent)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if !result.Check.Allowed {
		w.WriteHeader(http.StatusUnprocessableEntity)
	} else {
		w.WriteHeader(http.StatusCreated)
	}
	json.NewEncoder(w).Encode(result)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.engine.GetOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(order)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.engine.CancelOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(order)
}

func (h *Handler) listPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.engine.GetPositions(r.Context(), h.accountParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if positions == nil {
		positions = []domain.Position{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(positions)
}

func (h *Handler) listTrades(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if s := r.URL.Query().Get("since"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			http.Error(w, "since must be RFC3339", http.StatusBadRequest)
			return
		}
		since = parsed
	}

	trades, err := h.engine.Trades(r.Context(), h.accountParam(r), since)
	if err != nil {
		writeError(w, err)
		return
	}
	if trades == nil {
		trades = []domain.Trade{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(trades)
}

func (h *Handler) validateRisk(w http.ResponseWriter, r *http.Request) {
	var intent domain.OrderIntent
	if err := json.NewDecoder(r.Body).Decode(&intent); err != nil {
		utils.Logger.Error("Failed to decode request", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if intent.AccountID == "" {
		intent.AccountID = h.accountID
	}

	check, err := h.engine.ValidateRisk(r.Context(), intent)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(check)
}

func (h *Handler) positionSize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountSize    float64 `json:"account_size"`
		RiskPercent    float64 `json:"risk_percent"`
		EntryPrice     float64 `json:"entry_price"`
		StopLossPrice  float64 `json:"stop_loss_price"`
		WinProbability float64 `json:"win_probability,omitempty"`
		WinLossRatio   float64 `json:"win_loss_ratio,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Logger.Error("Failed to decode request", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp := struct {
		FixedFractional sizing.Recommendation `json:"fixed_fractional"`
		Kelly           *sizing.KellyResult   `json:"kelly,omitempty"`
	}{
		FixedFractional: sizing.FixedFractional(req.AccountSize, req.RiskPercent, req.EntryPrice, req.StopLossPrice),
	}
	if req.WinProbability > 0 {
		kelly := sizing.Kelly(req.AccountSize, req.WinProbability, req.WinLossRatio)
		resp.Kelly = &kelly
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) accountParam(r *http.Request) string {
	if id := r.URL.Query().Get("account_id"); id != "" {
		return id
	}
	return h.accountID
}

// writeError maps engine error categories onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch enginerr.CategoryOf(err) {
	case enginerr.ErrorCategoryValidation:
		status = http.StatusBadRequest
	case enginerr.ErrorCategoryNotFound:
		status = http.StatusNotFound
	case enginerr.ErrorCategoryState:
		status = http.StatusConflict
	case enginerr.ErrorCategoryExternal:
		status = http.StatusServiceUnavailable
	}

	var ee *enginerr.EngineError
	msg := err.Error()
	if errors.As(err, &ee) && ee.Underlying != nil {
		msg = ee.Underlying.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
