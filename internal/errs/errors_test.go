package errs

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToHTTP(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ErrUnauthenticated, http.StatusUnauthorized},
		{fmt.Errorf("%w: bad signature", ErrInvalidCredential), http.StatusUnauthorized},
		{ErrUnknownSubject, http.StatusNotFound},
		{fmt.Errorf("content: %w", ErrValidation), http.StatusBadRequest},
		{ErrAlreadyExists, http.StatusConflict},
		{ErrUnsupportedMedia, http.StatusUnsupportedMediaType},
		{ErrTooLarge, http.StatusRequestEntityTooLarge},
		{fmt.Errorf("%w: dial tcp", ErrStoreUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		require.Equal(t, c.want, ToHTTP(c.err), "err=%v", c.err)
	}
}

func TestIsAuth(t *testing.T) {
	require.True(t, IsAuth(fmt.Errorf("%w: expired", ErrInvalidCredential)))
	require.True(t, IsAuth(ErrUnknownSubject))
	require.False(t, IsAuth(ErrStoreUnavailable))
	require.False(t, IsAuth(ErrValidation))
}
