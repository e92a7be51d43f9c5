package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
	"github.com/cwrk-planet/kcd-platform/internal/errs"
	"github.com/cwrk-planet/kcd-platform/internal/repository"
)

type WorkspaceService struct {
	repo repository.WorkspaceRepository
	now  func() time.Time
}

func NewWorkspaceService(repo repository.WorkspaceRepository, now func() time.Time) *WorkspaceService {
	if now == nil {
		now = time.Now
	}
	return &WorkspaceService{repo: repo, now: now}
}

func (s *WorkspaceService) Get(ctx context.Context, userID domain.UserID) (*domain.Workspace, error) {
	return s.repo.GetByUser(ctx, userID)
}

type patchInput struct {
	Name    *string  `validate:"omitempty,min=1,max=120"`
	Theme   *string  `validate:"omitempty,oneof=dark light netflix brand"`
	Widgets []string `validate:"omitempty,max=64,dive,min=1,max=64"`
}

// Update применяет только переданные поля
func (s *WorkspaceService) Update(ctx context.Context, userID domain.UserID, p domain.WorkspacePatch) (*domain.Workspace, error) {
	in := patchInput{Name: p.Name, Theme: p.Theme}
	if p.Widgets != nil {
		in.Widgets = *p.Widgets
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if len(p.Layout) > 0 {
		var obj map[string]any
		if err := json.Unmarshal(p.Layout, &obj); err != nil || obj == nil {
			return nil, fmt.Errorf("%w: layout must be a JSON object", errs.ErrValidation)
		}
	}

	w, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	w.Apply(p, s.now())
	if err := s.repo.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}
