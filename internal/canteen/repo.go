package canteen

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// ---- menu ----

func (r *Repo) ListMenu(ctx context.Context, includeUnavailable bool) ([]MenuItem, error) {
	q := `SELECT id, name, description, price, image_url, available, created_at, updated_at
	      FROM menu_items`
	if !includeUnavailable {
		q += ` WHERE available`
	}
	q += ` ORDER BY name`

	rows, err := r.DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []MenuItem{}
	for rows.Next() {
		var m MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.ImageURL, &m.Available, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) CreateMenuItem(ctx context.Context, in MenuItemInput) (MenuItem, error) {
	var m MenuItem
	err := r.DB.QueryRow(ctx, `
		INSERT INTO menu_items (name, description, price, image_url, available)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, description, price, image_url, available, created_at, updated_at`,
		in.Name, in.Description, in.Price, in.ImageURL, in.Available,
	).Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.ImageURL, &m.Available, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return MenuItem{}, err
	}
	return m, nil
}

func (r *Repo) UpdateMenuItem(ctx context.Context, id int64, in MenuItemInput) (MenuItem, error) {
	var m MenuItem
	err := r.DB.QueryRow(ctx, `
		UPDATE menu_items
		SET name = $1, description = $2, price = $3, image_url = $4, available = $5, updated_at = now()
		WHERE id = $6
		RETURNING id, name, description, price, image_url, available, created_at, updated_at`,
		in.Name, in.Description, in.Price, in.ImageURL, in.Available, id,
	).Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.ImageURL, &m.Available, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return MenuItem{}, ErrItemNotFound
	}
	if err != nil {
		return MenuItem{}, err
	}
	return m, nil
}

func (r *Repo) DeleteMenuItem(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// ---- checkout ----

// Checkout prices the cart against the current menu and persists the order
// plus all its lines in one transaction. On any failure nothing is written.
func (r *Repo) Checkout(ctx context.Context, userID int64, cart []CartLine) (Order, error) {
	merged, err := mergeCart(cart)
	if err != nil {
		return Order{}, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// read price + availability for every referenced item in one query
	params := ""
	ids := make([]any, 0, len(merged))
	for i, line := range merged {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
		ids = append(ids, line.MenuItemID)
	}
	rows, err := tx.Query(ctx, `SELECT id, price, available FROM menu_items WHERE id IN (`+params+`)`, ids...)
	if err != nil {
		return Order{}, err
	}
	menu := map[int64]pricedItem{}
	for rows.Next() {
		var (
			id   int64
			item pricedItem
		)
		if err := rows.Scan(&id, &item.Price, &item.Available); err != nil {
			rows.Close()
			return Order{}, err
		}
		menu[id] = item
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Order{}, err
	}

	lines, total, err := priceCart(merged, menu)
	if err != nil {
		return Order{}, err
	}

	order := Order{UserID: userID, TotalPrice: total, Status: StatusPending}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, total_price, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		userID, total, StatusPending,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return Order{}, err
	}

	for i := range lines {
		lines[i].OrderID = order.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO order_details (order_id, menu_item_id, quantity, price, total_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			order.ID, lines[i].MenuItemID, lines[i].Quantity, lines[i].UnitPrice, lines[i].LineTotal,
		).Scan(&lines[i].ID)
		if err != nil {
			return Order{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	order.Lines = lines
	return order, nil
}

// ---- orders ----

func (r *Repo) GetOrder(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, user_id, total_price, status, created_at, updated_at
		FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.UserID, &o.TotalPrice, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, menu_item_id, quantity, price, total_price
		FROM order_details WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.MenuItemID, &l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			return Order{}, err
		}
		o.Lines = append(o.Lines, l)
	}
	return o, rows.Err()
}

func (r *Repo) ListOrdersByUser(ctx context.Context, userID int64) ([]Order, error) {
	return r.listOrders(ctx, `
		SELECT id, user_id, total_price, status, created_at, updated_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *Repo) ListAllOrders(ctx context.Context) ([]Order, error) {
	return r.listOrders(ctx, `
		SELECT id, user_id, total_price, status, created_at, updated_at
		FROM orders ORDER BY created_at DESC`)
}

func (r *Repo) listOrders(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalPrice, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateStatus applies a state-machine transition under a row lock and
// returns the updated order plus the status it moved from.
func (r *Repo) UpdateStatus(ctx context.Context, orderID int64, to Status) (Order, Status, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var from Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&from)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, "", ErrOrderNotFound
	}
	if err != nil {
		return Order{}, "", err
	}

	if !CanTransition(from, to) {
		return Order{}, "", fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
	}

	var o Order
	err = tx.QueryRow(ctx, `
		UPDATE orders SET status = $1, updated_at = now()
		WHERE id = $2
		RETURNING id, user_id, total_price, status, created_at, updated_at`,
		to, orderID,
	).Scan(&o.ID, &o.UserID, &o.TotalPrice, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, "", err
	}
	return o, from, nil
}
