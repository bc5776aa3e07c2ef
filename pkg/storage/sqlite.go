package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"parcelhq/meridian/pkg/shipping"
)

// SQLiteStore implements Store using SQLite. It uses a write-ahead log
// for better concurrent read performance and a single writer
// connection, which is all SQLite supports.
type SQLiteStore struct {
	db *sql.DB
}

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore opens (and if needed creates) a SQLite store at the
// given path with default settings.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteConfig{Path: path})
}

// NewSQLiteStoreWithConfig opens a SQLite store with custom
// configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS shipping_profiles (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		description      TEXT NOT NULL DEFAULT '',
		priority         INTEGER NOT NULL DEFAULT 100,
		is_active        INTEGER NOT NULL DEFAULT 1,
		is_default       INTEGER NOT NULL DEFAULT 0,
		match_conditions TEXT NOT NULL,
		cost_rules       TEXT NOT NULL,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shipping_profiles_priority
		ON shipping_profiles(priority);

	CREATE TABLE IF NOT EXISTS orders (
		id                      TEXT PRIMARY KEY,
		order_number            INTEGER NOT NULL DEFAULT 0,
		order_date              TEXT NOT NULL DEFAULT '',
		customer_email          TEXT NOT NULL DEFAULT '',
		subtotal                REAL NOT NULL DEFAULT 0,
		total_price             REAL NOT NULL DEFAULT 0,
		shipping_charged        REAL NOT NULL DEFAULT 0,
		shipping_cost_estimated REAL,
		calculation_details     TEXT,
		currency                TEXT NOT NULL DEFAULT 'USD',
		financial_status        TEXT NOT NULL DEFAULT '',
		fulfillment_status      TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS order_items (
		order_id      TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		position      INTEGER NOT NULL,
		product_id    TEXT NOT NULL DEFAULT '',
		variant_id    TEXT NOT NULL DEFAULT '',
		product_title TEXT NOT NULL,
		variant_title TEXT NOT NULL DEFAULT '',
		quantity      INTEGER NOT NULL DEFAULT 1,
		price         REAL NOT NULL DEFAULT 0,
		total         REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (order_id, position)
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// UpsertProfile inserts or updates a profile and returns its ID.
func (s *SQLiteStore) UpsertProfile(ctx context.Context, profile *shipping.Profile) (string, error) {
	id := profile.ID
	if id == "" {
		id = uuid.New().String()
	}

	now := time.Now().UTC()
	createdAt := profile.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	conditions, err := json.Marshal(profile.MatchConditions)
	if err != nil {
		return "", fmt.Errorf("failed to encode match conditions: %w", err)
	}
	rules, err := json.Marshal(profile.CostRules)
	if err != nil {
		return "", fmt.Errorf("failed to encode cost rules: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO shipping_profiles
			(id, name, description, priority, is_active, is_default,
			 match_conditions, cost_rules, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			priority = excluded.priority,
			is_active = excluded.is_active,
			is_default = excluded.is_default,
			match_conditions = excluded.match_conditions,
			cost_rules = excluded.cost_rules,
			updated_at = excluded.updated_at`,
		id, profile.Name, profile.Description, profile.Priority,
		boolToInt(profile.Active), boolToInt(profile.Default),
		string(conditions), string(rules),
		createdAt.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("failed to upsert profile: %w", err)
	}

	return id, nil
}

// GetProfile retrieves one profile by ID.
func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (*shipping.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, priority, is_active, is_default,
		       match_conditions, cost_rules, created_at, updated_at
		FROM shipping_profiles WHERE id = ?`, id)

	profile, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %q: %w", id, err)
	}
	return profile, nil
}

// ListProfiles returns profiles ordered by ascending priority.
func (s *SQLiteStore) ListProfiles(ctx context.Context, activeOnly bool) ([]shipping.Profile, error) {
	query := `
		SELECT id, name, description, priority, is_active, is_default,
		       match_conditions, cost_rules, created_at, updated_at
		FROM shipping_profiles`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY priority ASC, created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []shipping.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, *profile)
	}
	return profiles, rows.Err()
}

// DeleteProfile removes a profile.
func (s *SQLiteStore) DeleteProfile(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM shipping_profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile %q: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertOrder inserts or replaces an order and its line items in one
// transaction.
func (s *SQLiteStore) UpsertOrder(ctx context.Context, order *shipping.Order) error {
	if order.ID == "" {
		return fmt.Errorf("order id cannot be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders
			(id, order_number, order_date, customer_email, subtotal,
			 total_price, shipping_charged, shipping_cost_estimated,
			 currency, financial_status, fulfillment_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			order_number = excluded.order_number,
			order_date = excluded.order_date,
			customer_email = excluded.customer_email,
			subtotal = excluded.subtotal,
			total_price = excluded.total_price,
			shipping_charged = excluded.shipping_charged,
			currency = excluded.currency,
			financial_status = excluded.financial_status,
			fulfillment_status = excluded.fulfillment_status`,
		order.ID, order.OrderNumber, order.OrderDate, order.CustomerEmail,
		order.Subtotal, order.TotalPrice, order.ShippingCharged,
		order.ShippingCostEstimated, nonEmpty(order.Currency, "USD"),
		order.FinancialStatus, order.FulfillmentStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert order %q: %w", order.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, order.ID); err != nil {
		return fmt.Errorf("failed to clear items for order %q: %w", order.ID, err)
	}

	for i, item := range order.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items
				(order_id, position, product_id, variant_id, product_title,
				 variant_title, quantity, price, total)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			order.ID, i, item.ProductID, item.VariantID, item.ProductTitle,
			item.VariantTitle, item.Quantity, item.Price, item.Total,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item %d for order %q: %w", i, order.ID, err)
		}
	}

	return tx.Commit()
}

// GetOrder retrieves one order with its line items.
func (s *SQLiteStore) GetOrder(ctx context.Context, id string) (*shipping.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, order_number, order_date, customer_email, subtotal,
		       total_price, shipping_charged, shipping_cost_estimated,
		       currency, financial_status, fulfillment_status
		FROM orders WHERE id = ?`, id)

	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %q: %w", id, err)
	}

	items, err := s.loadItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

// ListOrdersWithoutCalculation returns orders that have no stored
// calculation yet.
func (s *SQLiteStore) ListOrdersWithoutCalculation(ctx context.Context, limit int) ([]shipping.Order, error) {
	query := `
		SELECT id, order_number, order_date, customer_email, subtotal,
		       total_price, shipping_charged, shipping_cost_estimated,
		       currency, financial_status, fulfillment_status
		FROM orders WHERE calculation_details IS NULL
		ORDER BY id ASC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []shipping.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := s.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

// SaveCalculation writes the estimated cost and full calculation
// details onto the order record.
func (s *SQLiteStore) SaveCalculation(ctx context.Context, orderID string, result *shipping.CalculationResult) error {
	details, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode calculation result: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET shipping_cost_estimated = ?, calculation_details = ?
		WHERE id = ?`,
		result.TotalCost, string(details), orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to save calculation for order %q: %w", orderID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) loadItems(ctx context.Context, orderID string) ([]shipping.LineItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, variant_id, product_title, variant_title,
		       quantity, price, total
		FROM order_items WHERE order_id = ? ORDER BY position ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items for order %q: %w", orderID, err)
	}
	defer rows.Close()

	var items []shipping.LineItem
	for rows.Next() {
		var item shipping.LineItem
		if err := rows.Scan(&item.ProductID, &item.VariantID, &item.ProductTitle,
			&item.VariantTitle, &item.Quantity, &item.Price, &item.Total); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(sc scanner) (*shipping.Profile, error) {
	var (
		p                 shipping.Profile
		active, dflt      int
		conditions, rules string
		created, updated  string
	)
	if err := sc.Scan(&p.ID, &p.Name, &p.Description, &p.Priority, &active, &dflt,
		&conditions, &rules, &created, &updated); err != nil {
		return nil, err
	}
	p.Active = active != 0
	p.Default = dflt != 0

	if err := json.Unmarshal([]byte(conditions), &p.MatchConditions); err != nil {
		return nil, fmt.Errorf("invalid match conditions for profile %q: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(rules), &p.CostRules); err != nil {
		return nil, fmt.Errorf("invalid cost rules for profile %q: %w", p.ID, err)
	}

	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		p.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		p.UpdatedAt = t
	}
	return &p, nil
}

func scanOrder(sc scanner) (*shipping.Order, error) {
	var (
		o         shipping.Order
		estimated sql.NullFloat64
	)
	if err := sc.Scan(&o.ID, &o.OrderNumber, &o.OrderDate, &o.CustomerEmail,
		&o.Subtotal, &o.TotalPrice, &o.ShippingCharged, &estimated,
		&o.Currency, &o.FinancialStatus, &o.FulfillmentStatus); err != nil {
		return nil, err
	}
	if estimated.Valid {
		v := estimated.Float64
		o.ShippingCostEstimated = &v
	}
	return &o, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nonEmpty(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
