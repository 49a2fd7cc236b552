package narrative

import (
	"context"
	"log/slog"
	"time"

	"storyreel/internal/clip"
	"storyreel/internal/config"
	"storyreel/internal/frames"
	"storyreel/internal/logging"
	"storyreel/internal/services"
	"storyreel/internal/services/kling"
	"storyreel/internal/tasklog"
)

// AnonymousOwner is recorded when the request carries no identity.
const AnonymousOwner = "anonymous"

// Submitter creates image-to-video jobs.
type Submitter interface {
	Submit(ctx context.Context, req kling.SubmitRequest) (kling.Task, error)
}

// Recorder persists dispatched tasks. Implementations must not fail the caller.
type Recorder interface {
	RecordSubmission(ctx context.Context, rec tasklog.Record)
}

// Dispatcher submits one job per clip plan.
type Dispatcher struct {
	provider Submitter
	recorder Recorder
	params   config.Video
	logger   *slog.Logger
	now      func() time.Time
}

// NewDispatcher builds a dispatcher using the fixed generation parameters in
// params. recorder may be nil.
func NewDispatcher(provider Submitter, recorder Recorder, params config.Video, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		provider: provider,
		recorder: recorder,
		params:   params,
		logger:   logging.NewComponentLogger(logger, "dispatcher"),
		now:      time.Now,
	}
}

// BuildPlans pairs frames with their descriptions and instructions.
func BuildPlans(input []clip.Frame, descs []clip.Description, instructions []clip.Instruction) []clip.Plan {
	plans := make([]clip.Plan, len(input))
	for i, frame := range input {
		plans[i] = clip.Plan{FrameURL: frame.URL, Status: clip.StatusPending}
		if i < len(descs) {
			plans[i].FrameDesc = descs[i].Text
		}
		if i < len(instructions) {
			plans[i].VideoClip = instructions[i].VideoClip
		}
	}
	return plans
}

// Dispatch submits every plan in order. A failed submission marks only that
// plan as error; the remaining plans are still submitted.
func (d *Dispatcher) Dispatch(ctx context.Context, plans []clip.Plan) []clip.Plan {
	out := make([]clip.Plan, len(plans))
	copy(out, plans)
	owner, ok := services.OwnerFromContext(ctx)
	if !ok {
		owner = AnonymousOwner
	}

	for i := range out {
		clipCtx := services.WithClipIndex(services.WithStage(ctx, "dispatch"), i+1)
		logger := logging.WithContext(clipCtx, d.logger)

		task, err := d.provider.Submit(clipCtx, kling.SubmitRequest{
			Image:     out[i].FrameURL,
			Prompt:    out[i].VideoClip,
			ModelName: d.params.ModelName,
			Mode:      d.params.Mode,
			Duration:  d.params.Duration,
			CFGScale:  d.params.CFGScale,
		})
		if err != nil {
			err = services.Wrap(services.ErrDispatch, "dispatch", "submit clip", "", err)
			out[i].Status = clip.StatusError
			out[i].Error = err.Error()
			logging.WarnWithContext(logger, "clip submission failed", "clip_dispatch_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check video provider credentials and quota"),
				logging.String(logging.FieldImpact, "this clip will not be generated"),
			)
			continue
		}

		out[i].TaskID = task.ID
		out[i].Status = task.Status
		if out[i].Status == "" {
			out[i].Status = clip.StatusPending
		}
		if task.VideoURL != "" {
			out[i].VideoURL = task.VideoURL
		}
		logger.Info("clip submitted",
			logging.String(logging.FieldTaskID, task.ID),
			logging.String("status", string(out[i].Status)),
		)

		if d.recorder != nil {
			now := d.now().UTC()
			d.recorder.RecordSubmission(clipCtx, tasklog.Record{
				TaskID:        task.ID,
				TaskType:      tasklog.TaskTypeNarrativeClip,
				Owner:         owner,
				Prompt:        out[i].VideoClip,
				InputImageURL: frames.InlineLabel(out[i].FrameURL),
				Status:        out[i].Status,
				TaskTime:      now,
				StartedAt:     now,
			})
		}
	}
	return out
}
