package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Raw().Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestConnectRejectsBadURL(t *testing.T) {
	_, err := Connect(context.Background(), "http://nope")
	assert.Error(t, err)
}

func TestNilClient(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Raw())
	assert.NoError(t, c.Close())
}
