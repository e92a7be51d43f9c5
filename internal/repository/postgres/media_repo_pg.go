package postgres

import (
	"context"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
	"github.com/cwrk-planet/kcd-platform/internal/repository/queries"
)

type MediaRepo struct {
	q querier
}

func NewMediaRepo(q querier) *MediaRepo {
	return &MediaRepo{q: q}
}

func (r *MediaRepo) Create(ctx context.Context, a *domain.MediaAsset) (int64, error) {
	var id int64
	err := r.q.QueryRow(ctx, queries.QueryCreateMediaAsset,
		int64(a.UserID),
		a.FileURL,
		string(a.FileType),
		a.MimeType,
		a.SizeBytes,
		a.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}

	return id, nil
}

func (r *MediaRepo) ListByUser(ctx context.Context, userID domain.UserID) ([]domain.MediaAsset, error) {
	rows, err := r.q.Query(ctx, queries.QueryListMediaByUser, int64(userID))
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []domain.MediaAsset
	for rows.Next() {
		var (
			a    domain.MediaAsset
			uid  int64
			kind string
		)
		if err := rows.Scan(&a.ID, &uid, &a.FileURL, &kind, &a.MimeType, &a.SizeBytes, &a.CreatedAt); err != nil {
			return nil, mapPgError(err)
		}
		a.UserID = domain.UserID(uid)
		a.FileType = domain.MediaKind(kind)
		out = append(out, a)
	}

	return out, mapPgErrorOrNil(rows.Err())
}

func mapPgErrorOrNil(err error) error {
	if err == nil {
		return nil
	}
	return mapPgError(err)
}
