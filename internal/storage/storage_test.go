package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the contract every backend has to satisfy.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		v, err := s.Get(ctx, "cart:missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "cart:v1", []byte(`{"items":[]}`)))

		v, err := s.Get(ctx, "cart:v1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"items":[]}`, string(v))
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "cart:v1", []byte(`{"items":[{"id":"1"}]}`)))
		require.NoError(t, s.Set(ctx, "cart:v1", []byte(`{"items":[{"id":"2"}]}`)))

		v, err := s.Get(ctx, "cart:v1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"items":[{"id":"2"}]}`, string(v))
	})

	t.Run("ping", func(t *testing.T) {
		if p, ok := s.(Pinger); ok {
			assert.NoError(t, p.Ping(ctx))
		}
	})
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[0] = 'x'

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(v))
}

func TestSQLStore_SQLite(t *testing.T) {
	s, err := NewSQLStore(DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.RunMigrations())
	// second run is a no-op
	require.NoError(t, s.RunMigrations())

	exerciseStore(t, s)
}

func TestNewSQLStore_UnsupportedDriver(t *testing.T) {
	_, err := NewSQLStore("mysql", "")
	assert.ErrorContains(t, err, "unsupported sql driver")
}
