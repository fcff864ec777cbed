package tracking

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"

	"comanda-core/internal/httpx"
	"comanda-core/internal/logger"
	"comanda-core/internal/microservices/tracking/handlers"
	"comanda-core/internal/repository"
)

// Run starts the pull-based tracking service.
func Run(ctx context.Context, port int, db *sqlx.DB) error {
	lg := logger.New("tracking-service")

	handler := handlers.NewTrackingHandler(repository.NewOrdersPG(db))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/{id}", handler.GetOrder)
	mux.HandleFunc("GET /orders", handler.ListOrders)

	lg.Info("service_started", map[string]any{"port": port})
	return httpx.New(":"+strconv.Itoa(port), mux).Run(ctx)
}
