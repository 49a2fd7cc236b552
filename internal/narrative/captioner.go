package narrative

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"storyreel/internal/clip"
	"storyreel/internal/frames"
	"storyreel/internal/logging"
	"storyreel/internal/services"
)

// CaptionPrompt is the fixed instruction sent with every frame.
const CaptionPrompt = "This is a storyboard frame taken from a short video clip. Describe the frame in English."

// Describer captions a single image.
type Describer interface {
	Describe(ctx context.Context, prompt string, image []byte, mimeType string, maxTokens int) (string, error)
}

// FrameResolver turns a frame reference into image bytes.
type FrameResolver interface {
	Resolve(ctx context.Context, ref string) (frames.Image, error)
}

// Captioner describes frames one at a time, in input order.
type Captioner struct {
	model     Describer
	resolver  FrameResolver
	maxTokens int
	logger    *slog.Logger
}

// NewCaptioner builds a captioner.
func NewCaptioner(model Describer, resolver FrameResolver, maxTokens int, logger *slog.Logger) *Captioner {
	return &Captioner{
		model:     model,
		resolver:  resolver,
		maxTokens: maxTokens,
		logger:    logging.NewComponentLogger(logger, "captioner"),
	}
}

// Caption returns one trimmed description per frame. The first fetch or model
// failure aborts the stage.
func (c *Captioner) Caption(ctx context.Context, input []clip.Frame) ([]clip.Description, error) {
	descs := make([]clip.Description, 0, len(input))
	for _, frame := range input {
		index := frame.Ordinal + 1
		frameCtx := services.WithClipIndex(services.WithStage(ctx, "caption"), index)
		logger := logging.WithContext(frameCtx, c.logger)
		start := time.Now()

		img, err := c.resolver.Resolve(frameCtx, frame.URL)
		if err != nil {
			return nil, services.Wrap(services.ErrUpstreamModel, "caption", "resolve frame",
				fmt.Sprintf("frame %d", index), err)
		}
		text, err := c.model.Describe(frameCtx, CaptionPrompt, img.Data, img.MIME, c.maxTokens)
		if err != nil {
			return nil, services.Wrap(services.ErrUpstreamModel, "caption", "describe frame",
				fmt.Sprintf("frame %d", index), err)
		}
		text = strings.TrimSpace(text)
		logger.Debug("frame captioned",
			logging.String("frame", frames.InlineLabel(frame.URL)),
			logging.Int("image_bytes", len(img.Data)),
			logging.Int("caption_chars", len(text)),
			logging.Duration("elapsed", time.Since(start)),
		)
		descs = append(descs, clip.Description{FrameURL: frame.URL, Text: text})
	}
	return descs, nil
}
