package narrative

import (
	"context"
	"log/slog"

	"storyreel/internal/clip"
	"storyreel/internal/logging"
	"storyreel/internal/services"
)

// Completer generates text from a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Story is the composer output.
type Story struct {
	Raw          string
	Instructions []clip.Instruction
	Kind         ParseKind
}

// Composer asks the text model for per-frame clip instructions.
type Composer struct {
	model     Completer
	maxTokens int
	logger    *slog.Logger
}

// NewComposer builds a composer.
func NewComposer(model Completer, maxTokens int, logger *slog.Logger) *Composer {
	return &Composer{model: model, maxTokens: maxTokens, logger: logging.NewComponentLogger(logger, "composer")}
}

// Compose requests a story and resolves it to one instruction per frame.
// Only the model call can fail; unreadable output falls back through the
// resolution tiers.
func (c *Composer) Compose(ctx context.Context, input []clip.Frame, descs []clip.Description) (Story, error) {
	ctx = services.WithStage(ctx, "compose")
	raw, err := c.model.Complete(ctx, BuildStoryPrompt(input, descs), c.maxTokens)
	if err != nil {
		return Story{}, services.Wrap(services.ErrUpstreamModel, "compose", "generate story", "", err)
	}
	instructions, kind := ResolveInstructions(raw, descs)

	logger := logging.WithContext(ctx, c.logger)
	if kind != ParseStrict {
		logging.WarnWithContext(logger, "story output was not a JSON array", "story_parse_fallback",
			logging.String("parse_kind", string(kind)),
			logging.Int("raw_chars", len(raw)),
			logging.String(logging.FieldErrorHint, "check the text model follows JSON instructions"),
			logging.String(logging.FieldImpact, "clip instructions were derived from fallback parsing"),
		)
	} else {
		logger.Debug("story composed", logging.Int("instructions", len(instructions)))
	}
	return Story{Raw: raw, Instructions: instructions, Kind: kind}, nil
}
