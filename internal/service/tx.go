package service

import "context"

// TxRepositories are bound to one transaction, so a document write and the
// index job it queues commit or roll back together.
type TxRepositories interface {
	Documents() DocumentRepositoryInterface
	IndexJobs() IndexJobRepositoryInterface
}

// TxRunner runs fn in a transaction that commits only if fn returns nil.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}
