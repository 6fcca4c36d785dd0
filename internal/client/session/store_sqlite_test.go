package session

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/jobportal/internal/client/client"
	"github.com/dmitrijs2005/jobportal/internal/client/models"
	"github.com/dmitrijs2005/jobportal/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/jobportal/internal/logging"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) (*Store, *metadata.SQLiteRepository) {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := metadata.NewSQLiteRepository(db)
	return NewStore(repo, logging.Nop()), repo
}

func TestSQLiteStore_LogoutAfterNotifyTimeoutClearsDisk(t *testing.T) {
	s, repo := newSQLiteStore(t)
	bg := context.Background()
	require.NoError(t, s.Login(bg, models.Credential{AccessToken: "a", RefreshToken: "r"}, seeker))

	ctx, cancel := context.WithTimeout(bg, 50*time.Millisecond)
	defer cancel()

	err := s.Logout(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)
	require.False(t, s.IsAuthenticated())

	for _, k := range models.SessionKeys {
		v, err := repo.Get(bg, k)
		require.NoError(t, err)
		require.Nil(t, v, k)
	}

	restored := NewStore(repo, logging.Nop())
	require.NoError(t, restored.Restore(bg))
	require.False(t, restored.IsAuthenticated(), "a restart must not bring the session back")
}

func TestSQLiteStore_RotationUnderCancelledContextReachesDisk(t *testing.T) {
	s, repo := newSQLiteStore(t)
	bg := context.Background()
	require.NoError(t, s.Login(bg, models.Credential{AccessToken: "old", RefreshToken: "R1"}, seeker))

	ctx, cancel := context.WithCancel(bg)
	cancel()
	require.NoError(t, s.UpdateTokens(ctx, models.Credential{AccessToken: "new", RefreshToken: "R2"}))

	got, err := s.RefreshToken(bg)
	require.NoError(t, err)
	require.Equal(t, "R2", got)

	v, err := repo.Get(bg, models.KeyAuthToken)
	require.NoError(t, err)
	require.Equal(t, "new", string(v))
}
