// Package reel holds the client-side state of one narrative result: the clip
// plans returned by the daemon, the status poller that fills in video URLs,
// the user's timeline ordering, and sequential playback of the finished reel.
//
// Session is the only shared structure. Poll batches are merged under one
// write lock, so readers observe either the state before a merge or after it.
// Loading a new result starts a new generation; merges tagged with an older
// generation are discarded.
package reel
