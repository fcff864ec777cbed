package domain

import "time"

// Broadcast channels. The kitchen channel carries every committed
// transition; the pending channel carries creation events only.
const (
	ChannelKitchen = "cocina.ordenes"
	ChannelPending = "pedidos.pendientes"
)

const (
	EventOrderCreated = "pedido.creado"
	EventOrderUpdated = "pedido.actualizado"
)

// OrderEvent is the payload pushed to subscribers. Timestamp is captured
// at publish time, not at commit time.
type OrderEvent struct {
	Event     string     `json:"event"`
	OrderID   int64      `json:"order_id"`
	Items     []Item     `json:"items"`
	Status    Status     `json:"status"`
	Source    SourceType `json:"source_type"`
	Timestamp time.Time  `json:"timestamp"`
}
