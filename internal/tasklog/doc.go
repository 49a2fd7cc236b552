// Package tasklog persists generation task records in SQLite.
//
// The store is write-mostly: the narrative dispatcher inserts one record per
// submitted clip, status polls write back the final video URL, and the API
// lists a caller's history. Recorder wraps the store with best-effort
// semantics so persistence failures never affect clip generation.
package tasklog
