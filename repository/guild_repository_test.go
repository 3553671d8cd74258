package repository

import (
	"context"
	"testing"

	"nerdbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuildRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewGuildRepository(testDB.DB)
	ctx := context.Background()

	t.Run("guild not found", func(t *testing.T) {
		guild, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, guild)
	})

	t.Run("create", func(t *testing.T) {
		guild, err := repo.Create(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), guild.GuildID)
		assert.True(t, guild.Active)
		assert.Equal(t, 0, guild.ChangelogVersion)
		assert.Nil(t, guild.LastReactorID)
	})

	t.Run("ensure exists", func(t *testing.T) {
		created, err := repo.EnsureExists(ctx, 1)
		require.NoError(t, err)
		assert.False(t, created)

		created, err = repo.EnsureExists(ctx, 2)
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("updates", func(t *testing.T) {
		require.NoError(t, repo.SetActive(ctx, 1, false))
		require.NoError(t, repo.SetChangelogVersion(ctx, 1, 4))
		require.NoError(t, repo.SetLastReactor(ctx, 1, 777))

		guild, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.False(t, guild.Active)
		assert.Equal(t, 4, guild.ChangelogVersion)
		require.NotNil(t, guild.LastReactorID)
		assert.Equal(t, int64(777), *guild.LastReactorID)
	})

	t.Run("update of unknown guild fails", func(t *testing.T) {
		assert.Error(t, repo.SetActive(ctx, 404, true))
	})

	t.Run("get all", func(t *testing.T) {
		guilds, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, guilds, 2)
		assert.Equal(t, int64(1), guilds[0].GuildID)
		assert.Equal(t, int64(2), guilds[1].GuildID)
	})
}
