package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/artgallery/storefront/internal/domain"
)

// PGHistory keeps the order history in PostgreSQL, for deployments where
// orders must outlive the session store.
type PGHistory struct{ db *pgxpool.Pool }

func NewPGHistory(db *pgxpool.Pool) *PGHistory { return &PGHistory{db: db} }

func (r *PGHistory) Append(ctx context.Context, o domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    INSERT INTO orders (id, status, customer_name, customer_email, address, city,
                        postal_code, country, payment_method, transaction_id, payer_email,
                        subtotal, shipping, tax, total, placed_at, submitted)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
  `, o.ID, o.Status, o.Customer.Name, o.Customer.Email, o.Customer.Address,
		o.Customer.City, o.Customer.PostalCode, o.Customer.Country,
		o.Payment.Method, o.Payment.TransactionID, o.Payment.PayerEmail,
		o.Subtotal.String(), o.Shipping.String(), o.Tax.String(), o.Total.String(),
		o.Date, o.Submitted); err != nil {
		return err
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
      INSERT INTO order_items (order_id, artwork_id, name, artist, image, price, quantity)
      VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, o.ID, it.ID, it.Name, it.Artist, it.Image, it.Price.String(), it.Quantity); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

const orderColumns = `
    id, status, customer_name, customer_email, address, city, postal_code, country,
    payment_method, transaction_id, payer_email,
    subtotal::text, shipping::text, tax::text, total::text, placed_at, submitted`

func (r *PGHistory) scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var subtotal, shipping, tax, total string
	if err := row.Scan(&o.ID, &o.Status, &o.Customer.Name, &o.Customer.Email,
		&o.Customer.Address, &o.Customer.City, &o.Customer.PostalCode, &o.Customer.Country,
		&o.Payment.Method, &o.Payment.TransactionID, &o.Payment.PayerEmail,
		&subtotal, &shipping, &tax, &total, &o.Date, &o.Submitted); err != nil {
		return domain.Order{}, err
	}
	var err error
	if o.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return domain.Order{}, fmt.Errorf("parse subtotal: %w", err)
	}
	if o.Shipping, err = decimal.NewFromString(shipping); err != nil {
		return domain.Order{}, fmt.Errorf("parse shipping: %w", err)
	}
	if o.Tax, err = decimal.NewFromString(tax); err != nil {
		return domain.Order{}, fmt.Errorf("parse tax: %w", err)
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return domain.Order{}, fmt.Errorf("parse total: %w", err)
	}
	return o, nil
}

func (r *PGHistory) items(ctx context.Context, orderID string) ([]domain.CartItem, error) {
	rows, err := r.db.Query(ctx, `
    SELECT artwork_id, name, artist, image, price::text, quantity
    FROM order_items WHERE order_id=$1
  `, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var it domain.CartItem
		var price string
		if err := rows.Scan(&it.ID, &it.Name, &it.Artist, &it.Image, &price, &it.Quantity); err != nil {
			return nil, err
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse item price: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGHistory) Get(ctx context.Context, id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := r.scanOrder(r.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	if o.Items, err = r.items(ctx, id); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *PGHistory) List(ctx context.Context) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY placed_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Items, err = r.items(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *PGHistory) Latest(ctx context.Context) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := r.scanOrder(r.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY placed_at DESC LIMIT 1`))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *PGHistory) MarkSubmitted(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET submitted = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
