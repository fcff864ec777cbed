package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"comanda-core/internal/domain"
	"comanda-core/internal/order"
)

// OrdersPG implements order.Store on Postgres. Per-record mutual
// exclusion comes from SELECT ... FOR UPDATE inside a transaction; every
// committed transition also appends to order_status_log.
type OrdersPG struct {
	db *sqlx.DB
}

func NewOrdersPG(db *sqlx.DB) *OrdersPG { return &OrdersPG{db: db} }

var _ order.Store = (*OrdersPG)(nil)

type orderRow struct {
	ID             int64             `db:"id"`
	SourceType     domain.SourceType `db:"source_type"`
	SourceRef      string            `db:"source_ref"`
	Items          []byte            `db:"items"`
	CustomerDetail *string           `db:"customer_detail"`
	TableNumber    *int              `db:"table_number"`
	Status         domain.Status     `db:"status"`
	CreatedAt      sql.NullTime      `db:"created_at"`
	UpdatedAt      sql.NullTime      `db:"updated_at"`
}

func (r orderRow) toDomain() (domain.OrderRecord, error) {
	rec := domain.OrderRecord{
		ID:             r.ID,
		Source:         r.SourceType,
		SourceRef:      r.SourceRef,
		CustomerDetail: r.CustomerDetail,
		TableNumber:    r.TableNumber,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt.Time,
		UpdatedAt:      r.UpdatedAt.Time,
	}
	if err := json.Unmarshal(r.Items, &rec.Items); err != nil {
		return rec, fmt.Errorf("decode items of order %d: %w", r.ID, err)
	}
	return rec, nil
}

const selectColumns = `id, source_type, source_ref, items, customer_detail, table_number, status, created_at, updated_at`

func (s *OrdersPG) Create(ctx context.Context, rec *domain.OrderRecord) (int64, error) {
	items, err := json.Marshal(rec.Items)
	if err != nil {
		return 0, fmt.Errorf("encode items: %w", err)
	}

	var id int64
	err = s.transact(ctx, func(tx *sqlx.Tx) error {
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO orders (source_type, source_ref, items, customer_detail, table_number, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			RETURNING id
		`, rec.Source, rec.SourceRef, items, rec.CustomerDetail, rec.TableNumber, rec.Status).Scan(&id); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_status_log (order_id, status, changed_at)
			VALUES ($1, $2, now())
		`, id, rec.Status); err != nil {
			return fmt.Errorf("insert status log: %w", err)
		}
		return nil
	})
	return id, err
}

func (s *OrdersPG) Get(ctx context.Context, id int64) (domain.OrderRecord, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row, `SELECT `+selectColumns+` FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.OrderRecord{}, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.OrderRecord{}, fmt.Errorf("get order %d: %w", id, err)
	}
	return row.toDomain()
}

func (s *OrdersPG) ListByStatus(ctx context.Context, source *domain.SourceType, status domain.Status) ([]domain.OrderRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM orders WHERE status = $1`
	args := []any{status}
	if source != nil {
		query += ` AND source_type = $2`
		args = append(args, *source)
	}
	query += ` ORDER BY created_at`

	var rows []orderRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	recs := make([]domain.OrderRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *OrdersPG) UpdateStatus(ctx context.Context, id int64, next domain.Status, check func(current domain.OrderRecord) error) (domain.OrderRecord, bool, error) {
	var rec domain.OrderRecord
	var changed bool
	err := s.transact(ctx, func(tx *sqlx.Tx) error {
		var row orderRow
		err := tx.GetContext(ctx, &row, `SELECT `+selectColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock order %d: %w", id, err)
		}
		if rec, err = row.toDomain(); err != nil {
			return err
		}

		if err := check(rec); err != nil {
			return err
		}
		if rec.Status == next {
			return nil // no-op, nothing to write
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE orders SET status = $2, updated_at = now() WHERE id = $1
		`, id, next); err != nil {
			return fmt.Errorf("update order %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_status_log (order_id, status, changed_at)
			VALUES ($1, $2, now())
		`, id, next); err != nil {
			return fmt.Errorf("insert status log: %w", err)
		}
		rec.Status = next
		changed = true
		return nil
	})
	if err != nil {
		return domain.OrderRecord{}, false, err
	}
	return rec, changed, nil
}

func (s *OrdersPG) transact(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
