// Package statuscache remembers resolved clip statuses so repeated polls for a
// finished task skip the video provider.
//
// Redis backs the cache when cache.redis_addr is configured; otherwise the
// daemon runs with Disabled, which never hits.
package statuscache
