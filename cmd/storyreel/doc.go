// Command storyreel is the client for storyreeld. It submits storyboard
// frames, polls clip status, lists task history, and plays the finished reel
// in an interactive terminal view.
package main
