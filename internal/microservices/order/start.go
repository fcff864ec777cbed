package order

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"

	"comanda-core/internal/broadcast"
	"comanda-core/internal/httpx"
	"comanda-core/internal/logger"
	"comanda-core/internal/microservices/order/handlers"
	corder "comanda-core/internal/order"
	"comanda-core/internal/repository"
)

// Run wires the order service: normalizer and transition engine over the
// Postgres store, broadcasting through the injected dispatcher.
func Run(ctx context.Context, port int, db *sqlx.DB, bus *broadcast.Dispatcher) error {
	lg := logger.New("order-service")

	store := repository.NewOrdersPG(db)
	normalizer := corder.NewNormalizer(store, bus, lg)
	engine := corder.NewEngine(store, bus, lg)
	handler := handlers.NewOrderHandler(normalizer, engine)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", handler.CreateOrder)
	mux.HandleFunc("POST /orders/{id}/status", handler.TransitionOrder)

	lg.Info("service_started", map[string]any{"port": port})
	return httpx.New(":"+strconv.Itoa(port), mux).Run(ctx)
}
