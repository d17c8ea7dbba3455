package redis

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "events:u1", EventChannel("u1"))
	assert.Equal(t, "throttle:reminder:u1:daily", ReminderThrottleKey("u1", "daily"))
	assert.Equal(t, "ratelimit:api:u1", APIRateLimitKey("u1"))
}

func TestNewClient(t *testing.T) {
	t.Run("connects and pings", func(t *testing.T) {
		mr := miniredis.RunT(t)

		client, err := NewClient("redis://" + mr.Addr())
		require.NoError(t, err)
		defer client.Close()
	})

	t.Run("rejects malformed url", func(t *testing.T) {
		_, err := NewClient("not a url")
		assert.Error(t, err)
	})
}
