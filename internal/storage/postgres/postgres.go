// Package postgres provides a pgx-backed implementation of storage.Store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/storage"
)

var _ storage.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS quotes (
    id TEXT PRIMARY KEY,
    adults INTEGER NOT NULL DEFAULT 0,
    children INTEGER NOT NULL DEFAULT 0,
    infants INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS option_details (
    opt_id TEXT PRIMARY KEY,
    external_id TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    comment TEXT NOT NULL DEFAULT '',
    service_type TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    supplier_id TEXT NOT NULL DEFAULT '',
    supplier_name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS line_items (
    id UUID PRIMARY KEY,
    quote_id TEXT NOT NULL REFERENCES quotes(id) ON DELETE CASCADE,
    selection_key TEXT NOT NULL,
    name TEXT NOT NULL,
    service_type TEXT NOT NULL,
    location TEXT NOT NULL,
    supplier_name TEXT NOT NULL,
    supplier_id TEXT NOT NULL,
    service_detail TEXT NOT NULL,
    service_detail_display TEXT NOT NULL,
    status TEXT NOT NULL,
    service_date TEXT NOT NULL,
    number_of_days INTEGER NOT NULL,
    rate_id TEXT NOT NULL,
    net_amount TEXT NOT NULL,
    sell_amount TEXT NOT NULL,
    external_id TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (quote_id, selection_key)
);

CREATE TABLE IF NOT EXISTS line_item_rooms (
    line_item_id UUID NOT NULL REFERENCES line_items(id) ON DELETE CASCADE,
    room_order INTEGER NOT NULL,
    service_type TEXT NOT NULL,
    service_subtype TEXT NOT NULL,
    adults INTEGER NOT NULL,
    children INTEGER NOT NULL,
    infants INTEGER NOT NULL,
    PRIMARY KEY (line_item_id, room_order)
);
`

type Store struct {
	pool *pgxpool.Pool
}

// New connects to dsn and creates the schema. The simple protocol is used so
// the store works behind PgBouncer in transaction mode.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) SaveQuote(ctx context.Context, quoteID string, t models.PassengerTotals) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quotes (id, adults, children, infants) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET adults = EXCLUDED.adults, children = EXCLUDED.children, infants = EXCLUDED.infants`,
		quoteID, t.Adults, t.Children, t.Infants,
	)
	if err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}
	return nil
}

func (s *Store) PassengerTotals(ctx context.Context, quoteID string) (models.PassengerTotals, error) {
	var t models.PassengerTotals
	err := s.pool.QueryRow(ctx,
		`SELECT adults, children, infants FROM quotes WHERE id = $1`, quoteID,
	).Scan(&t.Adults, &t.Children, &t.Infants)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, fmt.Errorf("quote %s: %w", quoteID, storage.ErrNotFound)
	}
	if err != nil {
		return t, fmt.Errorf("failed to get passenger totals: %w", err)
	}
	return t, nil
}

func (s *Store) SaveOptionDetail(ctx context.Context, d models.OptionDetail) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO option_details (opt_id, external_id, description, comment, service_type, location, supplier_id, supplier_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (opt_id) DO UPDATE SET external_id = EXCLUDED.external_id, description = EXCLUDED.description,
		   comment = EXCLUDED.comment, service_type = EXCLUDED.service_type, location = EXCLUDED.location,
		   supplier_id = EXCLUDED.supplier_id, supplier_name = EXCLUDED.supplier_name`,
		d.OptID, d.ExternalID, d.Description, d.Comment, d.ServiceType, d.Location, d.SupplierID, d.SupplierName,
	)
	if err != nil {
		return fmt.Errorf("failed to save option detail: %w", err)
	}
	return nil
}

func (s *Store) LookupOptionDetail(ctx context.Context, optID string) (models.OptionDetail, error) {
	d := models.OptionDetail{OptID: optID}
	err := s.pool.QueryRow(ctx,
		`SELECT external_id, description, comment, service_type, location, supplier_id, supplier_name
		 FROM option_details WHERE opt_id = $1`, optID,
	).Scan(&d.ExternalID, &d.Description, &d.Comment, &d.ServiceType, &d.Location, &d.SupplierID, &d.SupplierName)
	if errors.Is(err, pgx.ErrNoRows) {
		return d, fmt.Errorf("option %s: %w", optID, storage.ErrNotFound)
	}
	if err != nil {
		return d, fmt.Errorf("failed to get option detail: %w", err)
	}
	return d, nil
}

func (s *Store) Commit(ctx context.Context, req models.CommitRequest) ([]string, error) {
	if msgs := storage.CommitChecks(req); len(msgs) > 0 {
		return msgs, nil
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists int
	err = tx.QueryRow(ctx, `SELECT 1 FROM quotes WHERE id = $1`, req.QuoteID).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return []string{fmt.Sprintf("quote %s does not exist", req.QuoteID)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check quote: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO line_items (id, quote_id, selection_key, name, service_type, location, supplier_name, supplier_id,
		   service_detail, service_detail_display, status, service_date, number_of_days, rate_id, net_amount, sell_amount,
		   external_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 ON CONFLICT (quote_id, selection_key) DO NOTHING`,
		req.ID, req.QuoteID, req.SelectionKey, req.LineItemName, req.ServiceType, req.Location, req.SupplierName, req.SupplierID,
		req.ServiceDetail, req.ServiceDetailDisplayName, req.Status, req.ServiceDate, req.NumberOfDays, req.RateID,
		req.NetAmount, req.SellAmount, req.SelectedOptionExternalID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert line item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return []string{"this rate is already on the quote"}, nil
	}

	batch := &pgx.Batch{}
	for _, r := range req.Rooms {
		batch.Queue(
			`INSERT INTO line_item_rooms (line_item_id, room_order, service_type, service_subtype, adults, children, infants)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			req.ID, r.Order, r.ServiceType, r.ServiceSubtype, r.Adults, r.Children, r.Infants,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("failed to insert rooms: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil, nil
}

func (s *Store) LineItems(ctx context.Context, quoteID string) ([]models.CommitRequest, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, quote_id, selection_key, name, service_type, location, supplier_name, supplier_id,
		   service_detail, service_detail_display, status, service_date, number_of_days, rate_id,
		   net_amount, sell_amount, external_id
		 FROM line_items WHERE quote_id = $1 ORDER BY created_at, id`, quoteID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list line items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.CommitRequest, error) {
		var it models.CommitRequest
		err := row.Scan(&it.ID, &it.QuoteID, &it.SelectionKey, &it.LineItemName, &it.ServiceType, &it.Location,
			&it.SupplierName, &it.SupplierID, &it.ServiceDetail, &it.ServiceDetailDisplayName, &it.Status,
			&it.ServiceDate, &it.NumberOfDays, &it.RateID, &it.NetAmount, &it.SellAmount,
			&it.SelectedOptionExternalID)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan line items: %w", err)
	}

	for i := range items {
		rows, err := s.pool.Query(ctx,
			`SELECT room_order, service_type, service_subtype, adults, children, infants
			 FROM line_item_rooms WHERE line_item_id = $1 ORDER BY room_order`, items[i].ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to list rooms: %w", err)
		}
		rs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.RoomConfiguration, error) {
			var r models.RoomConfiguration
			err := row.Scan(&r.Order, &r.ServiceType, &r.ServiceSubtype, &r.Adults, &r.Children, &r.Infants)
			r.Passengers = r.Adults + r.Children + r.Infants
			return r, err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan rooms: %w", err)
		}
		items[i].Rooms = rs
	}
	return items, nil
}
