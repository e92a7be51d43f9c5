package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
	"github.com/cwrk-planet/kcd-platform/internal/repository"
	"github.com/cwrk-planet/kcd-platform/internal/repository/queries"

	"github.com/jackc/pgx/v5"
)

type WorkspaceRepo struct {
	q querier
}

func NewWorkspaceRepo(q querier) *WorkspaceRepo {
	return &WorkspaceRepo{q: q}
}

func (r *WorkspaceRepo) Create(ctx context.Context, w *domain.Workspace) (int64, error) {
	widgets, layout, err := encodeWorkspaceJSON(w)
	if err != nil {
		return 0, err
	}

	var id int64
	err = r.q.QueryRow(
		ctx,
		queries.QueryCreateWorkspace,
		int64(w.UserID),
		w.Role,
		w.Name,
		toNullStringPtr(w.Description),
		w.Theme,
		widgets,
		layout,
		w.CreatedAt,
		w.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}

	return id, nil
}

func (r *WorkspaceRepo) GetByUser(ctx context.Context, userID domain.UserID) (*domain.Workspace, error) {
	var (
		w       domain.Workspace
		uid     int64
		widgets []byte
		layout  []byte
	)
	err := r.q.QueryRow(ctx, queries.QueryGetWorkspaceByUser, int64(userID)).Scan(
		&w.ID,
		&uid,
		&w.Role,
		&w.Name,
		&w.Description,
		&w.Theme,
		&widgets,
		&layout,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, mapPgError(err)
	}
	w.UserID = domain.UserID(uid)
	if err := json.Unmarshal(widgets, &w.Widgets); err != nil {
		return nil, fmt.Errorf("decode widgets: %w", err)
	}
	w.Layout = json.RawMessage(layout)

	return &w, nil
}

func (r *WorkspaceRepo) Update(ctx context.Context, w *domain.Workspace) error {
	widgets, layout, err := encodeWorkspaceJSON(w)
	if err != nil {
		return err
	}

	tag, err := r.q.Exec(
		ctx,
		queries.QueryUpdateWorkspace,
		w.ID,
		w.Name,
		toNullStringPtr(w.Description),
		w.Theme,
		widgets,
		layout,
		w.UpdatedAt,
	)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func encodeWorkspaceJSON(w *domain.Workspace) (widgets, layout []byte, err error) {
	list := w.Widgets
	if list == nil {
		list = []string{}
	}
	widgets, err = json.Marshal(list)
	if err != nil {
		return nil, nil, fmt.Errorf("encode widgets: %w", err)
	}
	layout = w.Layout
	if len(layout) == 0 {
		layout = []byte(`{}`)
	}

	return widgets, layout, nil
}
