package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
)

// RunInTx runs fn in a transaction and commits when fn returns nil. Any error rolls the
// whole transaction back.
func RunInTx(c context.Context, pool *pgxpool.Pool, fn func(q *Queries, tx pgx.Tx) error) error {
	logger := zerolog.Ctx(c).With().Str(log.KeyProcess, "transaction").Logger()

	tx, err := pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed beginning transaction with error=%w", err)
	}
	defer func() {
		if err := tx.Rollback(c); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Error().Err(err).Msg("failed rolling back transaction")
		}
	}()

	if err = fn(New(tx), tx); err != nil {
		return err
	}

	if err = tx.Commit(c); err != nil {
		return fmt.Errorf("failed committing transaction with error=%w", err)
	}
	return nil
}

// Savepoint runs fn inside a nested transaction of tx. A failing fn only undoes its own
// statements, leaving tx usable.
func Savepoint(c context.Context, tx pgx.Tx, fn func(q *Queries) error) error {
	sp, err := tx.Begin(c)
	if err != nil {
		return fmt.Errorf("failed creating savepoint with error=%w", err)
	}
	if err = fn(New(sp)); err != nil {
		if rbErr := sp.Rollback(c); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return sp.Commit(c)
}
