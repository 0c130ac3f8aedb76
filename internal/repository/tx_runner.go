package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/notesqa/internal/service"
)

// TxRunner hands out document and index job repositories that share a
// single pgx transaction.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// WithTx commits when fn succeeds and rolls back otherwise.
func (r *TxRunner) WithTx(ctx context.Context, fn func(repos service.TxRepositories) error) error {
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(boundRepos{tx: tx})
	})
}

type boundRepos struct {
	tx pgx.Tx
}

func (b boundRepos) Documents() service.DocumentRepositoryInterface {
	return NewDocumentRepositoryWithTx(b.tx)
}

func (b boundRepos) IndexJobs() service.IndexJobRepositoryInterface {
	return NewIndexJobRepositoryWithTx(b.tx)
}
