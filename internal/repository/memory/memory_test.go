package memory

import (
	"context"
	"testing"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
	"github.com/cwrk-planet/kcd-platform/internal/repository"

	"github.com/stretchr/testify/require"
)

func TestChat_RecentReturnsNewestAscending(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	author := domain.Identity{UserID: 1, DisplayName: "Ann"}

	for i := 0; i < 5; i++ {
		d, err := domain.NewChatDraft(author, "", "m")
		require.NoError(t, err)
		_, err = s.Chat.Append(ctx, d)
		require.NoError(t, err)
	}
	other, err := domain.NewChatDraft(author, "other", "x")
	require.NoError(t, err)
	_, err = s.Chat.Append(ctx, other)
	require.NoError(t, err)

	got, err := s.Chat.Recent(ctx, domain.DefaultChannel, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, []int64{3, 4, 5}, []int64{got[0].ID, got[1].ID, got[2].ID})
}

func TestChat_RecentKeepsNewestTwoHundredOfTwoHundredFifty(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	author := domain.Identity{UserID: 1, DisplayName: "Ann"}

	for i := 0; i < 250; i++ {
		d, err := domain.NewChatDraft(author, "community", "m")
		require.NoError(t, err)
		_, err = s.Chat.Append(ctx, d)
		require.NoError(t, err)
	}

	got, err := s.Chat.Recent(ctx, "community", domain.HistoryLimit)
	require.NoError(t, err)
	require.Len(t, got, 200)
	require.Equal(t, int64(51), got[0].ID)
	require.Equal(t, int64(250), got[len(got)-1].ID)
	for i := 1; i < len(got); i++ {
		require.Equal(t, got[i-1].ID+1, got[i].ID)
	}
}

func TestChat_CanceledContextIsStoreUnavailable(t *testing.T) {
	s := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Chat.Recent(ctx, "community", 10)
	require.ErrorIs(t, err, repository.ErrStoreUnavailable)
}

func TestUsers_DuplicateEmail(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	u, err := domain.NewUser("a@example.com", "hash", time.Now())
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(tx repository.Tx) error {
		_, err := tx.Users().Create(ctx, u)
		return err
	})
	require.NoError(t, err)

	_, err = s.Users.Create(ctx, u)
	require.ErrorIs(t, err, repository.ErrAlreadyExists)

	ok, err := s.Users.ExistsByEmail(ctx, " A@example.com ")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMedia_NewestFirst(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	for _, url := range []string{"/a", "/b"} {
		_, err := s.Media.Create(ctx, &domain.MediaAsset{UserID: 7, FileURL: url})
		require.NoError(t, err)
	}
	got, err := s.Media.ListByUser(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "/b", got[0].FileURL)
}
