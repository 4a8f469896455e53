package database

import (
	"context"
	"testing"

	"github.com/krishkalaria12/snap-gallery/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	st, err := Open(context.Background(), &config.Config{DBDriver: "redis", DatabaseURL: "redis://localhost"})
	require.Error(t, err)
	assert.Nil(t, st)
	assert.Contains(t, err.Error(), `"redis"`)
}
