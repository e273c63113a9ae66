package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bitminerobotics/platform/internal/domain/product"
	"github.com/bitminerobotics/platform/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `id, name, description, price::float8, stock, image_url, category_id, subcategory_id, created_at, updated_at`

type ProductsRepo struct {
	base
}

func NewProductsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProductsRepo {
	return &ProductsRepo{base{pool: pool, prom: prom}}
}

func scanProduct(row pgx.Row) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Stock,
		&p.ImageURL,
		&p.CategoryID,
		&p.SubcategoryID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (r *ProductsRepo) List(ctx context.Context, filter product.ListFilter) ([]product.Product, error) {
	var conds []string
	var args []interface{}

	argsPosition := 1

	if filter.CategoryID != nil {
		conds = append(conds, fmt.Sprintf("category_id = $%d", argsPosition))
		args = append(args, *filter.CategoryID)
		argsPosition++
	}

	if filter.SubcategoryID != nil {
		conds = append(conds, fmt.Sprintf("subcategory_id = $%d", argsPosition))
		args = append(args, *filter.SubcategoryID)
		argsPosition++
	}

	query := `SELECT ` + productColumns + ` FROM products`

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
	args = append(args, filter.Limit, filter.Offset)

	out := make([]product.Product, 0, filter.Limit)

	err := r.observe("products.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProductsRepo) GetByID(ctx context.Context, id int64) (p product.Product, err error) {
	err = r.observe("products.get", func() error {
		p, err = scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.Product{}, product.ErrNotFound
		}
		return product.Product{}, err
	}
	return p, nil
}

// resolveRefs checks the subcategory against the category and fills the
// category in from the subcategory when only the latter is given.
func (r *ProductsRepo) resolveRefs(ctx context.Context, req product.UpsertRequest) (categoryID *int64, err error) {
	if req.SubcategoryID == nil {
		return req.CategoryID, nil
	}

	var parent int64

	err = r.observe("subcategories.parent", func() error {
		return r.pool.QueryRow(ctx, `SELECT category_id FROM subcategories WHERE id = $1`, *req.SubcategoryID).Scan(&parent)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrInvalidReference
		}
		return nil, err
	}

	resolved, err := product.ResolveCategory(req.CategoryID, parent)
	if err != nil {
		return nil, err
	}
	return &resolved, nil
}

func (r *ProductsRepo) Create(ctx context.Context, req product.UpsertRequest) (product.Product, error) {
	categoryID, err := r.resolveRefs(ctx, req)
	if err != nil {
		return product.Product{}, err
	}

	var p product.Product

	err = r.observe("products.create", func() error {
		p, err = scanProduct(r.pool.QueryRow(ctx,
			`INSERT INTO products (name, description, price, stock, image_url, category_id, subcategory_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+productColumns,
			req.Name, req.Description, req.Price, req.Stock, req.ImageURL, categoryID, req.SubcategoryID,
		))
		return err
	})

	if err != nil {
		if IsForeignKeyViolation(err) {
			return product.Product{}, product.ErrInvalidReference
		}
		return product.Product{}, err
	}
	return p, nil
}

func (r *ProductsRepo) Update(ctx context.Context, id int64, req product.UpsertRequest) (product.Product, error) {
	categoryID, err := r.resolveRefs(ctx, req)
	if err != nil {
		return product.Product{}, err
	}

	var p product.Product

	err = r.observe("products.update", func() error {
		p, err = scanProduct(r.pool.QueryRow(ctx,
			`UPDATE products
			SET name = $2,
				description = $3,
				price = $4,
				stock = $5,
				image_url = $6,
				category_id = $7,
				subcategory_id = $8,
				updated_at = NOW()
			WHERE id = $1
			RETURNING `+productColumns,
			id, req.Name, req.Description, req.Price, req.Stock, req.ImageURL, categoryID, req.SubcategoryID,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.Product{}, product.ErrNotFound
		}
		if IsForeignKeyViolation(err) {
			return product.Product{}, product.ErrInvalidReference
		}
		return product.Product{}, err
	}
	return p, nil
}

func (r *ProductsRepo) Delete(ctx context.Context, id int64) error {
	var affected int64

	err := r.observe("products.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return product.ErrNotFound
	}
	return nil
}
