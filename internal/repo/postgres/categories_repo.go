package postgres

import (
	"context"
	"errors"

	"github.com/bitminerobotics/platform/internal/domain/category"
	"github.com/bitminerobotics/platform/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	categoryColumns    = `id, name, description, created_at, updated_at`
	subcategoryColumns = `id, category_id, name, description, created_at, updated_at`
)

// CategoriesRepo owns both categories and their subcategories. Deleting a
// category cascades to its subcategories at the schema level.
type CategoriesRepo struct {
	base
}

func NewCategoriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *CategoriesRepo {
	return &CategoriesRepo{base{pool: pool, prom: prom}}
}

func scanCategory(row pgx.Row) (category.Category, error) {
	var c category.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanSubcategory(row pgx.Row) (category.Subcategory, error) {
	var s category.Subcategory
	err := row.Scan(&s.ID, &s.CategoryID, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *CategoriesRepo) List(ctx context.Context) ([]category.Category, error) {
	out := make([]category.Category, 0)

	err := r.observe("categories.list", func() error {
		rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			c, err := scanCategory(rows)
			if err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CategoriesRepo) GetByID(ctx context.Context, id int64) (c category.Category, err error) {
	err = r.observe("categories.get", func() error {
		c, err = scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return category.Category{}, category.ErrNotFound
		}
		return category.Category{}, err
	}
	return c, nil
}

func (r *CategoriesRepo) Create(ctx context.Context, req category.UpsertRequest) (c category.Category, err error) {
	err = r.observe("categories.create", func() error {
		c, err = scanCategory(r.pool.QueryRow(ctx,
			`INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING `+categoryColumns,
			req.Name, req.Description,
		))
		return err
	})

	if err != nil {
		return category.Category{}, err
	}
	return c, nil
}

func (r *CategoriesRepo) Update(ctx context.Context, id int64, req category.UpsertRequest) (c category.Category, err error) {
	err = r.observe("categories.update", func() error {
		c, err = scanCategory(r.pool.QueryRow(ctx,
			`UPDATE categories
			SET name = $2,
				description = $3,
				updated_at = NOW()
			WHERE id = $1
			RETURNING `+categoryColumns,
			id, req.Name, req.Description,
		))
		return err
	})

	if err != nil {
		// if there are no rows matching the id
		if errors.Is(err, pgx.ErrNoRows) {
			return category.Category{}, category.ErrNotFound
		}
		return category.Category{}, err
	}
	return c, nil
}

func (r *CategoriesRepo) Delete(ctx context.Context, id int64) error {
	var affected int64

	err := r.observe("categories.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return category.ErrNotFound
	}
	return nil
}

// ListSubcategories returns category.ErrNotFound when the parent is missing so
// an empty list always means "exists, no children".
func (r *CategoriesRepo) ListSubcategories(ctx context.Context, categoryID int64) ([]category.Subcategory, error) {
	var exists bool

	err := r.observe("categories.exists", func() error {
		return r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, categoryID).Scan(&exists)
	})
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, category.ErrNotFound
	}

	out := make([]category.Subcategory, 0)

	err = r.observe("subcategories.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+subcategoryColumns+` FROM subcategories WHERE category_id = $1 ORDER BY id ASC`,
			categoryID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			s, err := scanSubcategory(rows)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CategoriesRepo) CreateSubcategory(ctx context.Context, categoryID int64, req category.UpsertRequest) (s category.Subcategory, err error) {
	err = r.observe("subcategories.create", func() error {
		s, err = scanSubcategory(r.pool.QueryRow(ctx,
			`INSERT INTO subcategories (category_id, name, description)
			VALUES ($1, $2, $3)
			RETURNING `+subcategoryColumns,
			categoryID, req.Name, req.Description,
		))
		return err
	})

	if err != nil {
		if IsForeignKeyViolation(err) {
			return category.Subcategory{}, category.ErrNotFound
		}
		return category.Subcategory{}, err
	}
	return s, nil
}

func (r *CategoriesRepo) UpdateSubcategory(ctx context.Context, id int64, req category.UpsertRequest) (s category.Subcategory, err error) {
	err = r.observe("subcategories.update", func() error {
		s, err = scanSubcategory(r.pool.QueryRow(ctx,
			`UPDATE subcategories
			SET name = $2,
				description = $3,
				updated_at = NOW()
			WHERE id = $1
			RETURNING `+subcategoryColumns,
			id, req.Name, req.Description,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return category.Subcategory{}, category.ErrSubcategoryNotFound
		}
		return category.Subcategory{}, err
	}
	return s, nil
}

func (r *CategoriesRepo) DeleteSubcategory(ctx context.Context, id int64) error {
	var affected int64

	err := r.observe("subcategories.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM subcategories WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return category.ErrSubcategoryNotFound
	}
	return nil
}
