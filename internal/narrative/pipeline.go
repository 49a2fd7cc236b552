package narrative

import (
	"context"
	"log/slog"
	"time"

	"storyreel/internal/clip"
	"storyreel/internal/config"
	"storyreel/internal/logging"
)

// Model is the vision and text model used by a run.
type Model interface {
	Describer
	Completer
}

// Result is the output of one run.
type Result struct {
	Plans     []clip.Plan
	StoryRaw  string
	ParseKind ParseKind
}

// Pipeline runs caption, compose, and dispatch for one request.
type Pipeline struct {
	captioner  *Captioner
	composer   *Composer
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// New wires a pipeline from configuration and collaborators.
func New(cfg *config.Config, model Model, resolver FrameResolver, provider Submitter, recorder Recorder, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		captioner:  NewCaptioner(model, resolver, cfg.LLM.CaptionMaxTokens, logger),
		composer:   NewComposer(model, cfg.LLM.StoryMaxTokens, logger),
		dispatcher: NewDispatcher(provider, recorder, cfg.Video, logger),
		logger:     logging.NewComponentLogger(logger, "narrative"),
	}
}

// Run validates the frame list and executes every stage. Validation and model
// failures return an error and no plans; dispatch failures are reported per
// plan.
func (p *Pipeline) Run(ctx context.Context, refs []string) (Result, error) {
	input, err := ValidateFrames(refs)
	if err != nil {
		return Result{}, err
	}
	logger := logging.WithContext(ctx, p.logger)
	start := time.Now()
	logger.Info("narrative run started", logging.Int("frames", len(input)))

	descs, err := p.captioner.Caption(ctx, input)
	if err != nil {
		return Result{}, err
	}
	story, err := p.composer.Compose(ctx, input, descs)
	if err != nil {
		return Result{}, err
	}
	plans := p.dispatcher.Dispatch(ctx, BuildPlans(input, descs, story.Instructions))

	summary := clip.Summarize(plans)
	logger.Info("narrative run finished",
		logging.Int("clips", summary.Total),
		logging.Int("dispatched", summary.Pending+summary.Ready),
		logging.Int("failed", summary.Failed),
		logging.String("parse_kind", string(story.Kind)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return Result{Plans: plans, StoryRaw: story.Raw, ParseKind: story.Kind}, nil
}
