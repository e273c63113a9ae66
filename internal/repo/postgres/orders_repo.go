package postgres

import (
	"context"
	"errors"
	"math"

	"github.com/bitminerobotics/platform/internal/domain/order"
	"github.com/bitminerobotics/platform/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `id, user_id, total_amount::float8, order_status, created_at, updated_at`

type OrdersRepo struct {
	base
}

func NewOrdersRepo(pool *pgxpool.Pool, prom *observability.Prom) *OrdersRepo {
	return &OrdersRepo{base{pool: pool, prom: prom}}
}

func scanOrder(row pgx.Row) (order.Order, error) {
	var o order.Order
	err := row.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// Create places an order in one transaction: product rows are locked, stock is
// checked and decremented, and the total is computed from current prices.
func (r *OrdersRepo) Create(ctx context.Context, userID int64, items []order.ItemRequest) (order.Order, error) {
	lines := order.MergeItems(items)

	var created order.Order

	err := r.observe("orders.create", func() error {
		return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
			priced := make([]order.Item, 0, len(lines))
			var total float64

			for _, line := range lines {
				var price float64
				var stock int

				err := tx.QueryRow(ctx,
					`SELECT price::float8, stock FROM products WHERE id = $1 FOR UPDATE`,
					line.ProductID,
				).Scan(&price, &stock)
				if err != nil {
					if errors.Is(err, pgx.ErrNoRows) {
						return order.ErrProductNotFound
					}
					return err
				}

				if stock < line.Quantity {
					return order.ErrInsufficientStock
				}

				if _, err := tx.Exec(ctx,
					`UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1`,
					line.ProductID, line.Quantity,
				); err != nil {
					return err
				}

				productID := line.ProductID
				priced = append(priced, order.Item{ProductID: &productID, Quantity: line.Quantity, UnitPrice: price})
				total += price * float64(line.Quantity)
			}

			total = math.Round(total*100) / 100

			o, err := scanOrder(tx.QueryRow(ctx,
				`INSERT INTO orders (user_id, total_amount, order_status)
				VALUES ($1, $2, $3)
				RETURNING `+orderColumns,
				userID, total, order.StatusPending,
			))
			if err != nil {
				return err
			}

			for i := range priced {
				if err := tx.QueryRow(ctx,
					`INSERT INTO order_items (order_id, product_id, quantity, unit_price)
					VALUES ($1, $2, $3, $4)
					RETURNING id`,
					o.ID, priced[i].ProductID, priced[i].Quantity, priced[i].UnitPrice,
				).Scan(&priced[i].ID); err != nil {
					return err
				}
			}

			o.Items = priced
			created = o
			return nil
		})
	})

	if err != nil {
		return order.Order{}, err
	}
	return created, nil
}

// List returns every order, newest first, without line items.
func (r *OrdersRepo) List(ctx context.Context) ([]order.Order, error) {
	out := make([]order.Order, 0)

	err := r.observe("orders.list", func() error {
		rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				return err
			}
			out = append(out, o)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *OrdersRepo) GetByID(ctx context.Context, id int64) (order.Order, error) {
	var o order.Order

	err := r.observe("orders.get", func() error {
		var err error
		o, err = scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
		if err != nil {
			return err
		}

		rows, err := r.pool.Query(ctx,
			`SELECT id, product_id, quantity, unit_price::float8
			FROM order_items
			WHERE order_id = $1
			ORDER BY id ASC`,
			id,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		o.Items = make([]order.Item, 0)
		for rows.Next() {
			var it order.Item
			if err := rows.Scan(&it.ID, &it.ProductID, &it.Quantity, &it.UnitPrice); err != nil {
				return err
			}
			o.Items = append(o.Items, it)
		}
		return rows.Err()
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, order.ErrNotFound
		}
		return order.Order{}, err
	}
	return o, nil
}

func (r *OrdersRepo) UpdateStatus(ctx context.Context, id int64, status order.Status) (o order.Order, err error) {
	err = r.observe("orders.update_status", func() error {
		o, err = scanOrder(r.pool.QueryRow(ctx,
			`UPDATE orders
			SET order_status = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING `+orderColumns,
			id, status,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, order.ErrNotFound
		}
		return order.Order{}, err
	}
	return o, nil
}

func (r *OrdersRepo) Delete(ctx context.Context, id int64) error {
	var affected int64

	err := r.observe("orders.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return order.ErrNotFound
	}
	return nil
}
