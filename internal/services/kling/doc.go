// Package kling wraps the Kling image-to-video API: job submission, status
// queries, and the short-lived HS256 bearer token both require.
//
// Provider task states (submitted, processing, succeed, failed) are normalized
// to clip statuses so callers never see provider vocabulary.
package kling
