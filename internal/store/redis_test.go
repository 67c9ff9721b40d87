package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckInsKey_OnePerDay(t *testing.T) {
	loc, _ := time.LoadLocation("Asia/Kolkata")
	day := time.Date(2025, 7, 14, 0, 0, 0, 0, loc)

	assert.Equal(t, "timeclock:checkins:2025-07-14", checkInsKey(day))
	assert.NotEqual(t, checkInsKey(day), checkInsKey(day.AddDate(0, 0, 1)))
}

func TestRedis_NilSafe(t *testing.T) {
	var r *Redis
	assert.False(t, r.Healthy(context.Background()))
	assert.NoError(t, r.Close())

	assert.False(t, (&Redis{}).Healthy(context.Background()))
}
