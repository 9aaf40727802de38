package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientLimiterIsPerKey(t *testing.T) {
	l := newClientLimiter(1, 2, time.Minute)
	now := time.Now()

	assert.True(t, l.allow("10.0.0.1", now))
	assert.True(t, l.allow("10.0.0.1", now))
	assert.False(t, l.allow("10.0.0.1", now))

	assert.True(t, l.allow("10.0.0.2", now))
}

func TestClientLimiterRefills(t *testing.T) {
	l := newClientLimiter(60, 1, time.Minute)
	now := time.Now()

	assert.True(t, l.allow("10.0.0.1", now))
	assert.False(t, l.allow("10.0.0.1", now))
	assert.True(t, l.allow("10.0.0.1", now.Add(time.Second)))
}

func TestClientLimiterEvictsIdleClients(t *testing.T) {
	l := newClientLimiter(60, 1, time.Minute)
	now := time.Now()

	l.allow("10.0.0.1", now)
	l.allow("10.0.0.2", now)
	assert.Equal(t, 2, l.size())

	l.allow("10.0.0.3", now.Add(2*time.Minute))
	assert.Equal(t, 1, l.size())
}

func TestClientLimiterIdleCoversRefill(t *testing.T) {
	// 3 tokens at 1/minute take 3 minutes to refill.
	l := newClientLimiter(1, 3, time.Minute)
	assert.Equal(t, 3*time.Minute, l.idle)
}
