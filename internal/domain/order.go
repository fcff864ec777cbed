package domain

import "time"

// SourceType discriminates where an order originated. Together with
// SourceRef it forms a tagged reference into the source-specific record
// (table session, takeaway ticket or web-order registry).
type SourceType string

const (
	SourceTable    SourceType = "table"
	SourceTakeaway SourceType = "takeaway"
	SourceWeb      SourceType = "web"
)

func (s SourceType) Valid() bool {
	switch s {
	case SourceTable, SourceTakeaway, SourceWeb:
		return true
	}
	return false
}

// Item is a single line of an order after normalization.
type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// OrderRecord is the canonical kitchen-facing order. One record per
// submission event; mutated only through status transitions.
type OrderRecord struct {
	ID             int64      `db:"id"`
	Source         SourceType `db:"source_type"`
	SourceRef      string     `db:"source_ref"`
	Items          []Item     `db:"-"`
	CustomerDetail *string    `db:"customer_detail"`
	TableNumber    *int       `db:"table_number"`
	Status         Status     `db:"status"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}
