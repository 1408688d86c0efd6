package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskstore/internal/config"
)

func TestOptions(t *testing.T) {
	opts, err := Options(config.RedisConfig{URL: "redis://localhost:6379/2"})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = Options(config.RedisConfig{URL: "redis://localhost:6379/2", Password: "secret", DB: 5})
	require.NoError(t, err)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 5, opts.DB)

	_, err = Options(config.RedisConfig{URL: "http://nope"})
	assert.Error(t, err)
}
