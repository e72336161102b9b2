package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyRedisKey(t *testing.T) {
	key := Key{SPBUID: 12, FuelType: "pertalite", WindowDays: 60}
	assert.Equal(t, "forecast:stockout:12:pertalite:60", key.redisKey())
}

func TestKeyRedisKey_DistinctWindows(t *testing.T) {
	a := Key{SPBUID: 1, FuelType: "solar", WindowDays: 30}
	b := Key{SPBUID: 1, FuelType: "solar", WindowDays: 90}
	assert.NotEqual(t, a.redisKey(), b.redisKey())
}
