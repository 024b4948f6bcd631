package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"wabridge/internal/store"
)

type Store struct {
	DB *sql.DB
}

func New(db *sql.DB) *Store { return &Store{DB: db} }

// UpsertOrders writes one synced page. Rows keyed by an external id use
// INSERT OR REPLACE so a re-sync overwrites the stored copy; rows without an
// id (manual/placeholder) insert with NULL and get one assigned.
func (s *Store) UpsertOrders(ctx context.Context, orders []store.OrderUpsert) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO orders (id, phone, customer_name, order_number, date)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range orders {
		if _, err := stmt.ExecContext(ctx, nullIfZero(o.ID), o.Phone, o.CustomerName, o.OrderNumber, o.Date); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// InsertOrder inserts a single order with an engine-assigned id and returns
// it. Used for placeholder orders synthesized on inbound messages.
func (s *Store) InsertOrder(ctx context.Context, o store.OrderUpsert) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO orders (phone, customer_name, order_number, date)
		VALUES (?, ?, ?, ?)
	`, o.Phone, o.CustomerName, o.OrderNumber, o.Date)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetOrder(ctx context.Context, id int64) (store.Order, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, phone, customer_name, order_number, date FROM orders WHERE id = ?
	`, id)
	return scanOrder(row)
}

func (s *Store) GetOrderByPhone(ctx context.Context, phone string) (store.Order, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, phone, customer_name, order_number, date FROM orders WHERE phone = ?
	`, phone)
	return scanOrder(row)
}

func (s *Store) ListOrders(ctx context.Context) ([]store.Order, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, phone, customer_name, order_number, date FROM orders ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []store.Order{}
	for rows.Next() {
		var o store.Order
		if err := rows.Scan(&o.ID, &o.Phone, &o.CustomerName, &o.OrderNumber, &o.Date); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// LastSyncedOrderID returns the highest stored order id, 0 when no orders
// exist. Callers pass it upstream as the after_id sync cursor.
func (s *Store) LastSyncedOrderID(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	err := s.DB.QueryRowContext(ctx, `SELECT MAX(id) FROM orders`).Scan(&max)
	if err != nil {
		return 0, err
	}
	return max.Int64, nil
}

func (s *Store) InsertMessage(ctx context.Context, in store.MessageInsert) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO messages (order_id, phone, message, direction, status, media_url, media_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, in.OrderID, in.Phone, in.Message, in.Direction, in.Status,
		nullIfEmpty(in.MediaURL), nullIfEmpty(in.MediaType), in.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// MessagesByPhone returns one phone's thread, oldest first.
func (s *Store) MessagesByPhone(ctx context.Context, phone string) ([]store.Message, error) {
	return s.queryMessages(ctx, `
		SELECT id, order_id, phone, message, direction, status, media_url, media_type, created_at
		FROM messages WHERE phone = ? ORDER BY created_at ASC, id ASC
	`, phone)
}

// AllMessages returns the global log, newest first.
func (s *Store) AllMessages(ctx context.Context) ([]store.Message, error) {
	return s.queryMessages(ctx, `
		SELECT id, order_id, phone, message, direction, status, media_url, media_type, created_at
		FROM messages ORDER BY created_at DESC, id DESC
	`)
}

func (s *Store) MessageExists(ctx context.Context, phone, text, createdAt string) (bool, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id FROM messages WHERE phone = ? AND message = ? AND created_at = ?
	`, phone, text, createdAt)
	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) DeleteMessagesByPhone(ctx context.Context, phone string) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM messages WHERE phone = ?`, phone)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Templates(ctx context.Context) ([]store.Template, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, template_name, template_text FROM templates ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []store.Template{}
	for rows.Next() {
		var t store.Template
		if err := rows.Scan(&t.ID, &t.TemplateName, &t.TemplateText); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTemplate(ctx context.Context, id int64) (store.Template, bool, error) {
	var t store.Template
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, template_name, template_text FROM templates WHERE id = ?
	`, id).Scan(&t.ID, &t.TemplateName, &t.TemplateText)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Template{}, false, nil
		}
		return store.Template{}, false, err
	}
	return t, true, nil
}

func (s *Store) AddTemplate(ctx context.Context, name, text string) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO templates (template_name, template_text) VALUES (?, ?)
	`, name, text)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) DeleteTemplate(ctx context.Context, id int64) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	return err
}

func (s *Store) queryMessages(ctx context.Context, query string, args ...any) ([]store.Message, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []store.Message{}
	for rows.Next() {
		var m store.Message
		var mediaURL, mediaType sql.NullString
		if err := rows.Scan(&m.ID, &m.OrderID, &m.Phone, &m.Message, &m.Direction, &m.Status,
			&mediaURL, &mediaType, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.MediaURL = mediaURL.String
		m.MediaType = mediaType.String
		out = append(out, m)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanOrder(row scannable) (store.Order, bool, error) {
	var o store.Order
	err := row.Scan(&o.ID, &o.Phone, &o.CustomerName, &o.OrderNumber, &o.Date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Order{}, false, nil
		}
		return store.Order{}, false, err
	}
	return o, true, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZero(i int64) any {
	if i == 0 {
		return nil
	}
	return i
}
