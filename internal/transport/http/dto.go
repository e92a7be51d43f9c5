package http

import (
	"encoding/json"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
)

type PostMessageRequest struct {
	Channel string `json:"channel"`
	Content string `json:"content"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        UserResponse `json:"user"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type UserResponse struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	FullName         *string    `json:"full_name"`
	Role             string     `json:"role"`
	IsActive         bool       `json:"is_active"`
	IsVerified       bool       `json:"is_verified"`
	SubscriptionTier string     `json:"subscription_tier"`
	AvatarURL        *string    `json:"avatar_url"`
	Bio              *string    `json:"bio"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	LastLogin        *time.Time `json:"last_login"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:               int64(u.ID),
		Email:            u.Email,
		FullName:         u.FullName,
		Role:             u.Role,
		IsActive:         u.IsActive,
		IsVerified:       u.IsVerified,
		SubscriptionTier: u.SubscriptionTier,
		AvatarURL:        u.AvatarURL,
		Bio:              u.Bio,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
		LastLogin:        u.LastLogin,
	}
}

// WorkspaceUpdateRequest: отсутствующие поля не меняются
type WorkspaceUpdateRequest struct {
	WorkspaceName        *string         `json:"workspace_name"`
	WorkspaceDescription *string         `json:"workspace_description"`
	Theme                *string         `json:"theme"`
	Widgets              *[]string       `json:"widgets"`
	Layout               json.RawMessage `json:"layout"`
}

func (r WorkspaceUpdateRequest) toPatch() domain.WorkspacePatch {
	p := domain.WorkspacePatch{
		Name:        r.WorkspaceName,
		Description: r.WorkspaceDescription,
		Theme:       r.Theme,
		Widgets:     r.Widgets,
	}
	if len(r.Layout) > 0 && string(r.Layout) != "null" {
		p.Layout = r.Layout
	}
	return p
}

type WorkspaceResponse struct {
	ID                   int64           `json:"id"`
	UserID               int64           `json:"user_id"`
	Role                 string          `json:"role"`
	WorkspaceName        string          `json:"workspace_name"`
	WorkspaceDescription *string         `json:"workspace_description"`
	Theme                string          `json:"theme"`
	Widgets              []string        `json:"widgets"`
	Layout               json.RawMessage `json:"layout"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func toWorkspaceResponse(w *domain.Workspace) WorkspaceResponse {
	widgets := w.Widgets
	if widgets == nil {
		widgets = []string{}
	}
	layout := w.Layout
	if len(layout) == 0 {
		layout = json.RawMessage(`{}`)
	}
	return WorkspaceResponse{
		ID:                   w.ID,
		UserID:               int64(w.UserID),
		Role:                 w.Role,
		WorkspaceName:        w.Name,
		WorkspaceDescription: w.Description,
		Theme:                w.Theme,
		Widgets:              widgets,
		Layout:               layout,
		CreatedAt:            w.CreatedAt,
		UpdatedAt:            w.UpdatedAt,
	}
}

type MediaAssetResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	FileURL   string    `json:"file_url"`
	FileType  string    `json:"file_type"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

func toMediaAssetResponse(a domain.MediaAsset) MediaAssetResponse {
	return MediaAssetResponse{
		ID:        a.ID,
		UserID:    int64(a.UserID),
		FileURL:   a.FileURL,
		FileType:  string(a.FileType),
		MimeType:  a.MimeType,
		SizeBytes: a.SizeBytes,
		CreatedAt: a.CreatedAt,
	}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}
