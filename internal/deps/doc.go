// Package deps checks that external binaries, such as the media player used
// for combined playback, are installed and on PATH.
package deps
