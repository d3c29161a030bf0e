package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandle(t *testing.T) {
	h := NewHandle("testdb", "test_collection")
	assert.Equal(t, "testdb", h.Database())
	assert.Equal(t, "test_collection", h.Name())
	assert.Equal(t, "testdb.test_collection", h.FullName())
}

func TestHandleWithName(t *testing.T) {
	h := NewHandle("testdb", "test_collection")
	renamed := h.WithName("test_collection_backup")

	assert.Equal(t, "testdb.test_collection_backup", renamed.FullName())
	assert.Equal(t, "testdb", renamed.Database())
	// Handles are values; deriving a new one leaves the original intact.
	assert.Equal(t, "test_collection", h.Name())
}
