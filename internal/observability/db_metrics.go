package observability

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ObserveDB times fn under a logical op name ("categories.get", ...) with an
// outcome label:
//
//	ok        fn succeeded
//	not_found pgx.ErrNoRows
//	rejected  fn returned a non-database error, e.g. a domain rule such as
//	          insufficient stock raised inside a transaction
//	error     the database or the connection failed; also counted in
//	          db_errors_total by class
func (p *Prom) ObserveDB(op string, fn func() error) error {
	start := time.Now()
	err := fn()

	outcome := dbOutcome(err)
	if outcome == "error" {
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}
	p.DbQueryDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
	return err
}

func dbOutcome(err error) string {
	var pgErr *pgconn.PgError

	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, pgx.ErrNoRows):
		return "not_found"
	case errors.As(err, &pgErr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		pgconn.Timeout(err),
		isConnectError(err):
		return "error"
	default:
		return "rejected"
	}
}

func isConnectError(err error) bool {
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return "unique_violation"
		case "23503":
			return "foreign_key_violation"
		case "23514":
			return "check_violation"
		case "40001":
			return "serialization_failure"
		case "40P01":
			return "deadlock"
		case "57014":
			return "query_canceled"
		}
		return "pg_" + pgErr.Code
	}

	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded), pgconn.Timeout(err):
		return "timeout"
	case isConnectError(err):
		return "connection"
	}
	return "unknown"
}
