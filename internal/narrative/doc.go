// Package narrative turns a handful of storyboard frames into dispatched
// image-to-video jobs.
//
// A run has three sequential stages. The captioner describes each frame with a
// vision model, the composer asks a text model for one cinematography
// instruction per frame, and the dispatcher submits one job per frame to the
// video provider. Caption and compose failures abort the run; dispatch
// failures are isolated to the clip that failed.
//
// Story output is resolved through three tiers: strict JSON, a line-per-clip
// fallback, and a synthesized default. Every frame always ends up with exactly
// one non-empty instruction.
package narrative
