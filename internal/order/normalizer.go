package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"comanda-core/internal/broadcast"
	"comanda-core/internal/domain"
	"comanda-core/internal/logger"
)

// Submission is a raw order as received from one of the source
// collaborators (table session, takeaway ticket, web/chat order).
type Submission struct {
	Source         domain.SourceType
	SourceRef      string
	RawItems       json.RawMessage
	CustomerDetail *string
	TableNumber    *int
}

// Normalizer converts source-specific submissions into canonical order
// records, persists them in the pending state and announces the creation.
type Normalizer struct {
	store Store
	bus   *broadcast.Dispatcher
	log   *logger.Logger
}

func NewNormalizer(store Store, bus *broadcast.Dispatcher, log *logger.Logger) *Normalizer {
	return &Normalizer{store: store, bus: bus, log: log}
}

// Normalize validates and persists a submission. On success the record is
// in the pending state and exactly one creation event has been scheduled
// on each interested channel. On any failure nothing is persisted.
func (n *Normalizer) Normalize(ctx context.Context, sub Submission) (domain.OrderRecord, error) {
	if !sub.Source.Valid() {
		return domain.OrderRecord{}, fmt.Errorf("source %q: %w", sub.Source, domain.ErrUnknownSource)
	}
	if sub.SourceRef == "" {
		return domain.OrderRecord{}, fmt.Errorf("missing source reference: %w", domain.ErrInvalidSourceBinding)
	}
	if (sub.TableNumber != nil) != (sub.Source == domain.SourceTable) {
		return domain.OrderRecord{}, fmt.Errorf("table number and source %q do not match: %w",
			sub.Source, domain.ErrInvalidSourceBinding)
	}

	items, err := parseItems(sub.RawItems)
	if err != nil {
		return domain.OrderRecord{}, err
	}
	if len(items) == 0 {
		return domain.OrderRecord{}, domain.ErrEmptyOrder
	}

	rec := domain.OrderRecord{
		Source:      sub.Source,
		SourceRef:   sub.SourceRef,
		Items:       items,
		TableNumber: sub.TableNumber,
		Status:      domain.StatusPending,
	}
	// The table session owns the customer identity; free-form detail is
	// kept only for takeaway and web orders.
	if sub.Source != domain.SourceTable {
		rec.CustomerDetail = sub.CustomerDetail
	}

	id, err := n.store.Create(ctx, &rec)
	if err != nil {
		return domain.OrderRecord{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	rec.ID = id
	n.log.Debug("order_normalized", map[string]any{
		"order_id": id, "source_type": string(rec.Source), "items": len(rec.Items),
	})

	// Creation counts as the first committed transition: the kitchen
	// channel sees it like any other, the pending channel sees only these.
	n.bus.Publish(ctx, domain.ChannelKitchen, domain.EventOrderCreated, rec)
	n.bus.Publish(ctx, domain.ChannelPending, domain.EventOrderCreated, rec)
	return rec, nil
}

// parseItems decodes the raw item form. Two encodings are accepted: the
// canonical [{"name":"x","quantity":2}] and the legacy single-entry map
// form [{"x":2}] still produced by older chat-order clients.
func parseItems(raw json.RawMessage) ([]domain.Item, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no items payload: %w", domain.ErrMalformedItems)
	}
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedItems, err)
	}

	items := make([]domain.Item, 0, len(entries))
	for i, entry := range entries {
		item, err := decodeItem(entry)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func decodeItem(entry map[string]json.RawMessage) (domain.Item, error) {
	var item domain.Item
	if nameRaw, ok := entry["name"]; ok {
		qtyRaw, ok := entry["quantity"]
		if !ok {
			return item, fmt.Errorf("missing quantity: %w", domain.ErrMalformedItems)
		}
		if err := json.Unmarshal(nameRaw, &item.Name); err != nil {
			return item, fmt.Errorf("%w: %v", domain.ErrMalformedItems, err)
		}
		if err := json.Unmarshal(qtyRaw, &item.Quantity); err != nil {
			return item, fmt.Errorf("%w: %v", domain.ErrMalformedItems, err)
		}
	} else {
		if len(entry) != 1 {
			return item, fmt.Errorf("ambiguous item object: %w", domain.ErrMalformedItems)
		}
		for name, qtyRaw := range entry {
			item.Name = name
			if err := json.Unmarshal(qtyRaw, &item.Quantity); err != nil {
				return item, fmt.Errorf("%w: %v", domain.ErrMalformedItems, err)
			}
		}
	}
	if item.Name == "" {
		return item, fmt.Errorf("empty item name: %w", domain.ErrMalformedItems)
	}
	if item.Quantity <= 0 {
		return item, fmt.Errorf("non-positive quantity for %q: %w", item.Name, domain.ErrMalformedItems)
	}
	return item, nil
}

// IsRejection reports whether err is a submission rejection rather than an
// infrastructure failure.
func IsRejection(err error) bool {
	return errors.Is(err, domain.ErrUnknownSource) ||
		errors.Is(err, domain.ErrInvalidSourceBinding) ||
		errors.Is(err, domain.ErrMalformedItems) ||
		errors.Is(err, domain.ErrEmptyOrder)
}
