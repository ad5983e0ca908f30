package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/proxyscout/proxyscout/internal/config"
)

func TestBuildLibsqlDSN(t *testing.T) {
	t.Run("URLGetsAuthToken", func(t *testing.T) {
		dsn, local, err := buildLibsqlDSN(config.StoreConfig{
			URL:       "libsql://limits.turso.io?foo=bar",
			AuthToken: "token123",
		})
		require.NoError(t, err)
		require.False(t, local)
		require.Equal(t, "libsql://limits.turso.io?authToken=token123&foo=bar", dsn)
	})

	t.Run("FilePrefixKept", func(t *testing.T) {
		dsn, local, err := buildLibsqlDSN(config.StoreConfig{Path: "file:./proxyscout.db"})
		require.NoError(t, err)
		require.True(t, local)
		require.Equal(t, "file:./proxyscout.db", dsn)
	})

	t.Run("BarePathBecomesFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "proxyscout.db")
		dsn, local, err := buildLibsqlDSN(config.StoreConfig{Path: path})
		require.NoError(t, err)
		require.True(t, local)
		require.Equal(t, "file:"+path, dsn)
		require.DirExists(t, filepath.Dir(path))
	})

	t.Run("Memory", func(t *testing.T) {
		dsn, local, err := buildLibsqlDSN(config.StoreConfig{Path: ":memory:"})
		require.NoError(t, err)
		require.False(t, local)
		require.Equal(t, ":memory:", dsn)
	})

	t.Run("Missing", func(t *testing.T) {
		_, _, err := buildLibsqlDSN(config.StoreConfig{})
		require.Error(t, err)
	})
}

func TestRateLimitQueryValidate(t *testing.T) {
	require.Error(t, RateLimitQuery{}.Validate())
	require.Error(t, RateLimitQuery{All: true, Prefix: "api."}.Validate())
	require.NoError(t, RateLimitQuery{All: true}.Validate())
	require.NoError(t, RateLimitQuery{Endpoint: "api.proxyscrape.com"}.Validate())

	where, args, err := RateLimitQuery{Prefix: " API."}.whereClause()
	require.NoError(t, err)
	require.Equal(t, "WHERE endpoint LIKE ?", where)
	require.Equal(t, []any{"api.%"}, args)
}
