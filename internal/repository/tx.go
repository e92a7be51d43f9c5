package repository

import "context"

// Tx: репозитории, работающие внутри одной транзакции
type Tx interface {
	Users() UserRepository
	Workspaces() WorkspaceRepository
}

type TxManager interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
