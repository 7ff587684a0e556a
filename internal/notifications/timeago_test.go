package notifications

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "0s ago", TimeAgo(now, now))
	assert.Equal(t, "45s ago", TimeAgo(now, now.Add(-45*time.Second)))
	assert.Equal(t, "1m ago", TimeAgo(now, now.Add(-60*time.Second)))
	assert.Equal(t, "59m ago", TimeAgo(now, now.Add(-59*time.Minute)))
	assert.Equal(t, "1h ago", TimeAgo(now, now.Add(-time.Hour)))
	assert.Equal(t, "23h ago", TimeAgo(now, now.Add(-23*time.Hour)))
	assert.Equal(t, "1d ago", TimeAgo(now, now.Add(-24*time.Hour)))
	assert.Equal(t, "29d ago", TimeAgo(now, now.Add(-29*24*time.Hour)))
	assert.Equal(t, "1mo ago", TimeAgo(now, now.Add(-30*24*time.Hour)))
	assert.Equal(t, "12mo ago", TimeAgo(now, now.Add(-365*24*time.Hour)))
}

func TestTimeAgoClampsFutureTimestamps(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "0s ago", TimeAgo(now, now.Add(time.Minute)))
}
