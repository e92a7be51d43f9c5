package domain

import (
	"encoding/json"
	"time"
)

const DefaultTheme = "dark"

type Workspace struct {
	ID          int64
	UserID      UserID
	Role        string
	Name        string
	Description *string
	Theme       string // dark, light, netflix, brand
	Widgets     []string
	Layout      json.RawMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewDefaultWorkspace: рабочее пространство, создаваемое при регистрации
func NewDefaultWorkspace(u *User, now time.Time) *Workspace {
	return &Workspace{
		UserID:    u.ID,
		Role:      u.Role,
		Name:      u.DisplayName() + "'s workspace",
		Theme:     DefaultTheme,
		Widgets:   []string{},
		Layout:    json.RawMessage(`{}`),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WorkspacePatch: частичное обновление, nil-поля не трогаются
type WorkspacePatch struct {
	Name        *string
	Description *string
	Theme       *string
	Widgets     *[]string
	Layout      json.RawMessage
}

func (w *Workspace) Apply(p WorkspacePatch, now time.Time) {
	if p.Name != nil {
		w.Name = *p.Name
	}
	if p.Description != nil {
		w.Description = trimPtr(p.Description)
	}
	if p.Theme != nil {
		w.Theme = *p.Theme
	}
	if p.Widgets != nil {
		w.Widgets = *p.Widgets
	}
	if len(p.Layout) > 0 {
		w.Layout = p.Layout
	}
	w.UpdatedAt = now
}
