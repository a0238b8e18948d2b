package dig_container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/aula/apps/api/echo"
	"github.com/trezcool/aula/core/group"
	"github.com/trezcool/aula/storage"
)

func TestNew(t *testing.T) {
	t.Setenv("ENV", "TEST")
	t.Setenv("TEST_STORAGE_ENGINE", "memory")

	c := New()
	err := c.Invoke(func(server *echoapi.Server, workspaces *group.Workspaces, stores *storage.Stores) {
		assert.NotNil(t, server)
		assert.Equal(t, 0, workspaces.Len())
		assert.NoError(t, stores.Close())
	})
	require.NoError(t, err)
}
