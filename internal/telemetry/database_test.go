package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithSearchPath(t *testing.T) {
	t.Run("url dsn", func(t *testing.T) {
		dsn, err := WithSearchPath("postgres://u:p@localhost:5432/pos?sslmode=disable", "pos")
		require.NoError(t, err)
		assert.Equal(t, "postgres://u:p@localhost:5432/pos?search_path=pos&sslmode=disable", dsn)
	})

	t.Run("replaces existing search_path", func(t *testing.T) {
		dsn, err := WithSearchPath("postgresql://localhost/pos?search_path=public", "pos")
		require.NoError(t, err)
		assert.Equal(t, "postgresql://localhost/pos?search_path=pos", dsn)
	})

	t.Run("key value dsn", func(t *testing.T) {
		dsn, err := WithSearchPath("host=localhost dbname=pos", "pos")
		require.NoError(t, err)
		assert.Equal(t, "host=localhost dbname=pos search_path=pos", dsn)
	})
}
