package redisclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_HostPort(t *testing.T) {
	opts, err := options(Config{Addr: "localhost:6379", Password: "pw", DB: 2})
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
}

func TestOptions_URL(t *testing.T) {
	opts, err := options(Config{Addr: "redis://:secret@cache.internal:6380/3", Password: "ignored"})
	require.NoError(t, err)

	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 3, opts.DB)
}

func TestOptions_BadURL(t *testing.T) {
	_, err := options(Config{Addr: "redis://host:6379/notadb"})
	assert.Error(t, err)
}
