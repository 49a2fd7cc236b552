package statuscache

import "time"

// NewWithKV builds a Redis cache over a fake command set for tests.
func NewWithKV(store kv, ttl time.Duration) *Redis {
	return &Redis{kv: store, ttl: ttl}
}
