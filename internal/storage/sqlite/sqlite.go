// Package sqlite provides a SQLite-backed implementation of storage.Store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/storage"
)

var _ storage.Store = (*SQLiteStore)(nil)

type SQLiteStore struct {
	db *sql.DB
}

// New opens the database at dbPath, creating parent directories and
// running migrations.
func New(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer keeps line item inserts from tripping SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) SaveQuote(ctx context.Context, quoteID string, t models.PassengerTotals) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quotes (id, adults, children, infants) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET adults = excluded.adults, children = excluded.children, infants = excluded.infants`,
		quoteID, t.Adults, t.Children, t.Infants,
	)
	if err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}
	return nil
}

func (s *SQLiteStore) PassengerTotals(ctx context.Context, quoteID string) (models.PassengerTotals, error) {
	var t models.PassengerTotals
	err := s.db.QueryRowContext(ctx,
		`SELECT adults, children, infants FROM quotes WHERE id = ?`, quoteID,
	).Scan(&t.Adults, &t.Children, &t.Infants)
	if errors.Is(err, sql.ErrNoRows) {
		return t, fmt.Errorf("quote %s: %w", quoteID, storage.ErrNotFound)
	}
	if err != nil {
		return t, fmt.Errorf("failed to get passenger totals: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) SaveOptionDetail(ctx context.Context, d models.OptionDetail) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO option_details (opt_id, external_id, description, comment, service_type, location, supplier_id, supplier_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(opt_id) DO UPDATE SET external_id = excluded.external_id, description = excluded.description,
		   comment = excluded.comment, service_type = excluded.service_type, location = excluded.location,
		   supplier_id = excluded.supplier_id, supplier_name = excluded.supplier_name`,
		d.OptID, d.ExternalID, d.Description, d.Comment, d.ServiceType, d.Location, d.SupplierID, d.SupplierName,
	)
	if err != nil {
		return fmt.Errorf("failed to save option detail: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LookupOptionDetail(ctx context.Context, optID string) (models.OptionDetail, error) {
	d := models.OptionDetail{OptID: optID}
	err := s.db.QueryRowContext(ctx,
		`SELECT external_id, description, comment, service_type, location, supplier_id, supplier_name
		 FROM option_details WHERE opt_id = ?`, optID,
	).Scan(&d.ExternalID, &d.Description, &d.Comment, &d.ServiceType, &d.Location, &d.SupplierID, &d.SupplierName)
	if errors.Is(err, sql.ErrNoRows) {
		return d, fmt.Errorf("option %s: %w", optID, storage.ErrNotFound)
	}
	if err != nil {
		return d, fmt.Errorf("failed to get option detail: %w", err)
	}
	return d, nil
}

// Commit inserts the line item and its rooms in one transaction.
func (s *SQLiteStore) Commit(ctx context.Context, req models.CommitRequest) ([]string, error) {
	if msgs := storage.CommitChecks(req); len(msgs) > 0 {
		return msgs, nil
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM quotes WHERE id = ?`, req.QuoteID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return []string{fmt.Sprintf("quote %s does not exist", req.QuoteID)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check quote: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM line_items WHERE quote_id = ? AND selection_key = ?`, req.QuoteID, req.SelectionKey,
	).Scan(&exists)
	if err == nil {
		return []string{"this rate is already on the quote"}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check line item: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO line_items (id, quote_id, selection_key, name, service_type, location, supplier_name, supplier_id,
		   service_detail, service_detail_display, status, service_date, number_of_days, rate_id, net_amount, sell_amount,
		   external_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.QuoteID, req.SelectionKey, req.LineItemName, req.ServiceType, req.Location, req.SupplierName, req.SupplierID,
		req.ServiceDetail, req.ServiceDetailDisplayName, req.Status, req.ServiceDate, req.NumberOfDays, req.RateID,
		req.NetAmount, req.SellAmount, req.SelectedOptionExternalID, time.Now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert line item: %w", err)
	}

	for _, r := range req.Rooms {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO line_item_rooms (line_item_id, room_order, service_type, service_subtype, adults, children, infants)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			req.ID, r.Order, r.ServiceType, r.ServiceSubtype, r.Adults, r.Children, r.Infants,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert room: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil, nil
}

func (s *SQLiteStore) LineItems(ctx context.Context, quoteID string) ([]models.CommitRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, quote_id, selection_key, name, service_type, location, supplier_name, supplier_id,
		   service_detail, service_detail_display, status, service_date, number_of_days, rate_id,
		   net_amount, sell_amount, external_id
		 FROM line_items WHERE quote_id = ? ORDER BY created_at, id`, quoteID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list line items: %w", err)
	}
	defer rows.Close()

	var items []models.CommitRequest
	for rows.Next() {
		var it models.CommitRequest
		if err := rows.Scan(&it.ID, &it.QuoteID, &it.SelectionKey, &it.LineItemName, &it.ServiceType, &it.Location,
			&it.SupplierName, &it.SupplierID, &it.ServiceDetail, &it.ServiceDetailDisplayName, &it.Status,
			&it.ServiceDate, &it.NumberOfDays, &it.RateID, &it.NetAmount, &it.SellAmount,
			&it.SelectedOptionExternalID); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate line items: %w", err)
	}

	for i := range items {
		rs, err := s.rooms(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Rooms = rs
	}
	return items, nil
}

func (s *SQLiteStore) rooms(ctx context.Context, lineItemID string) ([]models.RoomConfiguration, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT room_order, service_type, service_subtype, adults, children, infants
		 FROM line_item_rooms WHERE line_item_id = ? ORDER BY room_order`, lineItemID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var out []models.RoomConfiguration
	for rows.Next() {
		var r models.RoomConfiguration
		if err := rows.Scan(&r.Order, &r.ServiceType, &r.ServiceSubtype, &r.Adults, &r.Children, &r.Infants); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		r.Passengers = r.Adults + r.Children + r.Infants
		out = append(out, r)
	}
	return out, rows.Err()
}
