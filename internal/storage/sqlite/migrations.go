package sqlite

import "database/sql"

// quotes must exist before line items reference them.
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
    id TEXT PRIMARY KEY,
    quote_id TEXT NOT NULL,
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
    created_at INTEGER NOT NULL,
    UNIQUE (quote_id, selection_key),
    FOREIGN KEY (quote_id) REFERENCES quotes(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS line_item_rooms (
    line_item_id TEXT NOT NULL,
    room_order INTEGER NOT NULL,
    service_type TEXT NOT NULL,
    service_subtype TEXT NOT NULL,
    adults INTEGER NOT NULL,
    children INTEGER NOT NULL,
    infants INTEGER NOT NULL,
    PRIMARY KEY (line_item_id, room_order),
    FOREIGN KEY (line_item_id) REFERENCES line_items(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_line_items_quote_id ON line_items(quote_id);
`

func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
