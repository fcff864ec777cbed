package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"comanda-core/internal/domain"
	"comanda-core/internal/order"
)

type TrackingHandler struct {
	store order.Store
}

func NewTrackingHandler(store order.Store) *TrackingHandler {
	return &TrackingHandler{store: store}
}

// GetOrder handles GET /orders/{id}.
func (h *TrackingHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_id", "order id must be an integer")
		return
	}
	rec, err := h.store.Get(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toView(rec))
}

// ListOrders handles GET /orders?status=N&source_type=web. Reconnecting
// subscribers use it to catch up on broadcasts they missed.
func (h *TrackingHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	statusParam := r.URL.Query().Get("status")
	if statusParam == "" {
		writeProblem(w, http.StatusBadRequest, "missing_status", "status query parameter is required")
		return
	}
	n, err := strconv.Atoi(statusParam)
	if err != nil || !domain.Status(n).Known() {
		writeProblem(w, http.StatusBadRequest, "bad_status", "unknown status "+statusParam)
		return
	}
	status := domain.Status(n)

	var source *domain.SourceType
	if sp := r.URL.Query().Get("source_type"); sp != "" {
		st := domain.SourceType(sp)
		if !st.Valid() {
			writeProblem(w, http.StatusBadRequest, "bad_source_type", "unknown source type "+sp)
			return
		}
		source = &st
	}

	recs, err := h.store.ListByStatus(r.Context(), source, status)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	views := make([]orderView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, toView(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": views})
}

type orderView struct {
	OrderID     int64         `json:"order_id"`
	SourceType  string        `json:"source_type"`
	SourceRef   string        `json:"source_reference_id"`
	Items       []domain.Item `json:"items"`
	Status      int           `json:"status"`
	State       string        `json:"state"`
	TableNumber *int          `json:"table_number,omitempty"`
	UpdatedAt   string        `json:"updated_at"`
}

func toView(rec domain.OrderRecord) orderView {
	return orderView{
		OrderID:     rec.ID,
		SourceType:  string(rec.Source),
		SourceRef:   rec.SourceRef,
		Items:       rec.Items,
		Status:      int(rec.Status),
		State:       rec.Status.String(),
		TableNumber: rec.TableNumber,
		UpdatedAt:   rec.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, code int, typ, detail string) {
	writeJSON(w, code, map[string]any{
		"type":   typ,
		"title":  http.StatusText(code),
		"status": code,
		"detail": detail,
	})
}
