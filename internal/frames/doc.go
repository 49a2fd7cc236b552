// Package frames resolves frame references (remote URLs or inline data URLs)
// into image bytes for the captioning model, enforcing size limits and
// downscaling oversized images.
package frames
