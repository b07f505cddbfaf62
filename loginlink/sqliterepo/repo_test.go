package sqliterepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/chrissyx/zay-linkauth/loginlink"
	"github.com/chrissyx/zay-linkauth/loginlink/sqliterepo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *sqliterepo.Repo {
	t.Helper()

	db, err := sqliterepo.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := sqliterepo.New(db)
	require.NoError(t, err)
	return repo
}

func testLink(linkKey string) *loginlink.LoginLink {
	now := time.Now().UTC().Truncate(time.Second)
	return &loginlink.LoginLink{
		ID:             "id-" + linkKey,
		TicketID:       "JH13BNK",
		TargetUsername: "alice",
		LinkKey:        linkKey,
		IssuerAdmin:    "agent1",
		CreatedAt:      now,
		ExpiresAt:      now.Add(24 * time.Hour),
	}
}

func TestRepo_CreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	link := testLink("k1")
	require.NoError(t, repo.Create(ctx, link))

	got, err := repo.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, link.ID, got.ID)
	require.Equal(t, link.TicketID, got.TicketID)
	require.Equal(t, link.TargetUsername, got.TargetUsername)
	require.False(t, got.IsUsed)
	require.WithinDuration(t, link.ExpiresAt, got.ExpiresAt, time.Second)
}

func TestRepo_GetUnknown(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, loginlink.ErrLinkNotFound)
}

func TestRepo_MarkUsedIsConditional(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testLink("k1")))

	usedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.MarkUsed(ctx, "k1", usedAt))

	// Second transition must fail: the first one is the only winner.
	err := repo.MarkUsed(ctx, "k1", usedAt.Add(time.Second))
	require.ErrorIs(t, err, loginlink.ErrLinkAlreadyUsed)

	got, err := repo.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, got.IsUsed)
	require.WithinDuration(t, usedAt, got.UsedAt, time.Second)
}

func TestRepo_MarkUsedUnknown(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.MarkUsed(context.Background(), "missing", time.Now())
	require.ErrorIs(t, err, loginlink.ErrLinkNotFound)
}

func TestRepo_Delete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testLink("k1")))
	require.NoError(t, repo.Delete(ctx, "k1"))
	require.NoError(t, repo.Delete(ctx, "k1")) // absent link is not an error

	_, err := repo.Get(ctx, "k1")
	require.ErrorIs(t, err, loginlink.ErrLinkNotFound)
}

func TestRepo_ServiceIntegration(t *testing.T) {
	repo := newTestRepo(t)

	svc, err := loginlink.NewService(repo, zerolog.Nop())
	require.NoError(t, err)

	link, err := svc.Create(context.Background(), "JH13BNK", "alice", "agent1")
	require.NoError(t, err)

	username, err := svc.Resolve(context.Background(), link.LinkKey, "JH13BNK")
	require.NoError(t, err)
	require.Equal(t, "alice", username)

	_, err = svc.Resolve(context.Background(), link.LinkKey, "JH13BNK")
	require.ErrorIs(t, err, loginlink.ErrLinkAlreadyUsed)
}
