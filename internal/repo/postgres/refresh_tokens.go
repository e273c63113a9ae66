package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/bitminerobotics/platform/internal/domain/session"
	"github.com/bitminerobotics/platform/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RefreshTokensRepo struct {
	base
}

func NewRefreshTokensRepo(pool *pgxpool.Pool, prom *observability.Prom) *RefreshTokensRepo {
	return &RefreshTokensRepo{base{pool: pool, prom: prom}}
}

const insertRefreshToken = `INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked_at, replaced_by, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7)`

func (r *RefreshTokensRepo) Issue(ctx context.Context, row session.Session) error {
	return r.observe("refresh_tokens.create", func() error {
		_, err := r.pool.Exec(ctx, insertRefreshToken,
			row.ID, row.UserID, row.TokenHash, row.ExpiresAt, row.RevokedAt, row.ReplacedBy, row.CreatedAt,
		)
		return err
	})
}

// Rotate revokes the presented token and stores its replacement atomically.
// The old row is locked so two concurrent refreshes cannot both succeed.
func (r *RefreshTokensRepo) Rotate(ctx context.Context, oldID, oldHash string, next session.Session) error {
	return r.observe("refresh_tokens.rotate", func() error {
		return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
			row, err := getForUpdate(ctx, tx, oldID)
			if err != nil {
				return err
			}

			if err := row.CheckRotatable(oldHash, time.Now().UTC()); err != nil {
				return err
			}

			if _, err := tx.Exec(ctx, `
			UPDATE refresh_tokens
			SET revoked_at = NOW(), replaced_by = $2
			WHERE id = $1
		`, oldID, next.ID); err != nil {
				return err
			}

			_, err = tx.Exec(ctx, insertRefreshToken,
				next.ID, row.UserID, next.TokenHash, next.ExpiresAt, nil, nil, next.CreatedAt,
			)
			return err
		})
	})
}

func getForUpdate(ctx context.Context, tx pgx.Tx, id string) (session.Session, error) {
	var row session.Session

	err := tx.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, revoked_at, replaced_by, created_at
		FROM refresh_tokens
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(
		&row.ID,
		&row.UserID,
		&row.TokenHash,
		&row.ExpiresAt,
		&row.RevokedAt,
		&row.ReplacedBy,
		&row.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, err
	}

	return row, nil
}

// Revoke is idempotent; revoking an unknown or already revoked token is not an error.
func (r *RefreshTokensRepo) Revoke(ctx context.Context, id string) error {
	return r.observe("refresh_tokens.revoke", func() error {
		_, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL
	`, id)
		return err
	})
}

// Used when an admin changes a user's password or role so existing sessions end.
func (r *RefreshTokensRepo) RevokeAllForUser(ctx context.Context, userID int64) error {
	return r.observe("refresh_tokens.revoke_all", func() error {
		_, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL
	`, userID)
		return err
	})
}
