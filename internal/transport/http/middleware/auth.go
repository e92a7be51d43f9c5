package httpmw

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
	"github.com/cwrk-planet/kcd-platform/internal/errs"
	"github.com/cwrk-planet/kcd-platform/pkg/httputil"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

type Authenticator interface {
	User(ctx context.Context, credential string) (*domain.User, error)
}

// Credential: сначала ?token=, затем Authorization: Bearer
func Credential(r *http.Request) string {
	if t := strings.TrimSpace(r.URL.Query().Get("token")); t != "" {
		return t
	}
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// RequireUser проверяет токен и кладёт пользователя в контекст
func RequireUser(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := a.User(r.Context(), Credential(r))
			if err != nil {
				status := errs.ToHTTP(err)
				httputil.Error(r.Context(), w, status, authMessage(err), nil)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyUser, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserFromCtx(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(ctxKeyUser).(*domain.User)
	return u, ok && u != nil
}

func authMessage(err error) string {
	switch errs.ToHTTP(err) {
	case http.StatusUnauthorized:
		if errors.Is(err, errs.ErrUnauthenticated) {
			return "not authenticated"
		}
		return "invalid token"
	case http.StatusNotFound:
		return "user not found"
	default:
		return "authentication unavailable"
	}
}
