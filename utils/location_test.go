package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	// same point
	assert.Equal(t, 0.0, HaversineDistance(14.5995, 120.9842, 14.5995, 120.9842))

	// Manila to Quezon City is roughly 11 km
	d := HaversineDistance(14.5995, 120.9842, 14.6760, 121.0437)
	assert.InDelta(t, 11, d, 2)

	// Manila to Cebu is roughly 570 km
	d = HaversineDistance(14.5995, 120.9842, 10.3157, 123.8854)
	assert.InDelta(t, 570, d, 20)

	// symmetric
	assert.InDelta(t,
		HaversineDistance(14.5995, 120.9842, 10.3157, 123.8854),
		HaversineDistance(10.3157, 123.8854, 14.5995, 120.9842),
		0.0001)
}

func TestIsLocationValid(t *testing.T) {
	assert.True(t, IsLocationValid(0, 0))
	assert.True(t, IsLocationValid(-90, 180))
	assert.True(t, IsLocationValid(90, -180))
	assert.False(t, IsLocationValid(90.1, 0))
	assert.False(t, IsLocationValid(-90.1, 0))
	assert.False(t, IsLocationValid(0, 180.1))
	assert.False(t, IsLocationValid(0, -180.1))
}

func TestIsLocationRecent(t *testing.T) {
	assert.False(t, IsLocationRecent(nil))

	fresh := time.Now().Add(-5 * time.Minute)
	assert.True(t, IsLocationRecent(&fresh))

	stale := time.Now().Add(-45 * time.Minute)
	assert.False(t, IsLocationRecent(&stale))
}
