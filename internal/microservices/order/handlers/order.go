package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"comanda-core/internal/domain"
	"comanda-core/internal/order"
)

type createOrderRequest struct {
	SourceType        string          `json:"source_type"`
	SourceReferenceID string          `json:"source_reference_id"`
	Items             json.RawMessage `json:"items"`
	CustomerDetail    *string         `json:"customer_detail,omitempty"`
	TableNumber       *int            `json:"table_number,omitempty"`
}

type createOrderResponse struct {
	OrderID int64  `json:"order_id"`
	Status  int    `json:"status"`
	State   string `json:"state"`
}

type transitionRequest struct {
	Status int `json:"status"`
}

type transitionResponse struct {
	OrderID int64  `json:"order_id"`
	Status  int    `json:"status"`
	State   string `json:"state"`
}

type OrderHandler struct {
	normalizer *order.Normalizer
	engine     *order.Engine
}

func NewOrderHandler(normalizer *order.Normalizer, engine *order.Engine) *OrderHandler {
	return &OrderHandler{normalizer: normalizer, engine: engine}
}

// CreateOrder handles POST /orders.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	rec, err := h.normalizer.Normalize(r.Context(), order.Submission{
		Source:         domain.SourceType(req.SourceType),
		SourceRef:      req.SourceReferenceID,
		RawItems:       req.Items,
		CustomerDetail: req.CustomerDetail,
		TableNumber:    req.TableNumber,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createOrderResponse{
		OrderID: rec.ID,
		Status:  int(rec.Status),
		State:   rec.Status.String(),
	})
}

// TransitionOrder handles POST /orders/{id}/status.
func (h *OrderHandler) TransitionOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_id", "order id must be an integer")
		return
	}
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	status, err := h.engine.Transition(r.Context(), id, domain.Status(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionResponse{
		OrderID: id,
		Status:  int(status),
		State:   status.String(),
	})
}

// writeError maps the domain error taxonomy onto HTTP statuses. The
// outcome always reflects persisted state, never broadcast outcome.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case order.IsRejection(err):
		writeProblem(w, http.StatusBadRequest, "rejected_submission", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeProblem(w, http.StatusConflict, "invalid_transition", err.Error())
	default:
		writeProblem(w, http.StatusInternalServerError, "persistence_failure", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeProblem renders errors in a simplified problem+json shape.
func writeProblem(w http.ResponseWriter, code int, typ, detail string) {
	writeJSON(w, code, map[string]any{
		"type":   typ,
		"title":  http.StatusText(code),
		"status": code,
		"detail": detail,
	})
}
