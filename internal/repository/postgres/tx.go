package postgres

import (
	"context"

	"github.com/cwrk-planet/kcd-platform/internal/repository"

	"github.com/jackc/pgx/v5"
)

type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxManager открывает транзакцию и отдает репозитории поверх неё
type TxManager struct {
	db beginner
}

func NewTxManager(db beginner) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	err := pgx.BeginFunc(ctx, m.db, func(tx pgx.Tx) error {
		return fn(txRepos{tx: tx})
	})
	if err != nil {
		return mapPgError(err)
	}
	return nil
}

type txRepos struct {
	tx pgx.Tx
}

func (t txRepos) Users() repository.UserRepository {
	return NewUserRepo(t.tx)
}

func (t txRepos) Workspaces() repository.WorkspaceRepository {
	return NewWorkspaceRepo(t.tx)
}
