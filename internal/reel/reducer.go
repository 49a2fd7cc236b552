package reel

import "storyreel/internal/clip"

// Reduce applies one poll result to a plan. A plan that already has a video
// or has failed is final. A failed query leaves the plan for the next tick.
func Reduce(plan clip.Plan, res clip.PollResult) clip.Plan {
	if plan.VideoURL != "" || plan.Status == clip.StatusError {
		return plan
	}
	if res.Err != nil {
		return plan
	}
	switch {
	case res.VideoURL != "":
		plan.VideoURL = res.VideoURL
		plan.Status = clip.StatusResolved
	case res.Status == clip.StatusError:
		plan.Status = clip.StatusError
	case res.Status == clip.StatusResolved:
		plan.Status = clip.StatusProcessing
	case res.Status == clip.StatusPending, res.Status == clip.StatusProcessing:
		plan.Status = res.Status
	}
	return plan
}
