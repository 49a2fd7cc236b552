package reel_test

import (
	"errors"
	"testing"

	"storyreel/internal/clip"
	"storyreel/internal/reel"
)

func TestReduce(t *testing.T) {
	pending := clip.Plan{TaskID: "t", Status: clip.StatusPending}
	cases := []struct {
		name string
		plan clip.Plan
		res  clip.PollResult
		want clip.Plan
	}{
		{
			name: "video url resolves",
			plan: pending,
			res:  clip.PollResult{TaskID: "t", Status: clip.StatusResolved, VideoURL: "u"},
			want: clip.Plan{TaskID: "t", Status: clip.StatusResolved, VideoURL: "u"},
		},
		{
			name: "url wins over status",
			plan: pending,
			res:  clip.PollResult{TaskID: "t", Status: clip.StatusProcessing, VideoURL: "u"},
			want: clip.Plan{TaskID: "t", Status: clip.StatusResolved, VideoURL: "u"},
		},
		{
			name: "processing stored",
			plan: pending,
			res:  clip.PollResult{TaskID: "t", Status: clip.StatusProcessing},
			want: clip.Plan{TaskID: "t", Status: clip.StatusProcessing},
		},
		{
			name: "resolved without url stays processing",
			plan: pending,
			res:  clip.PollResult{TaskID: "t", Status: clip.StatusResolved},
			want: clip.Plan{TaskID: "t", Status: clip.StatusProcessing},
		},
		{
			name: "error fails",
			plan: pending,
			res:  clip.PollResult{TaskID: "t", Status: clip.StatusError},
			want: clip.Plan{TaskID: "t", Status: clip.StatusError},
		},
		{
			name: "query error keeps plan",
			plan: clip.Plan{TaskID: "t", Status: clip.StatusProcessing},
			res:  clip.PollResult{TaskID: "t", Status: clip.StatusError, Err: errors.New("boom")},
			want: clip.Plan{TaskID: "t", Status: clip.StatusProcessing},
		},
		{
			name: "video url never overwritten",
			plan: clip.Plan{TaskID: "t", Status: clip.StatusResolved, VideoURL: "first"},
			res:  clip.PollResult{TaskID: "t", Status: clip.StatusResolved, VideoURL: "second"},
			want: clip.Plan{TaskID: "t", Status: clip.StatusResolved, VideoURL: "first"},
		},
		{
			name: "failed plan is final",
			plan: clip.Plan{TaskID: "t", Status: clip.StatusError},
			res:  clip.PollResult{TaskID: "t", Status: clip.StatusResolved, VideoURL: "late"},
			want: clip.Plan{TaskID: "t", Status: clip.StatusError},
		},
	}
	for _, tc := range cases {
		if got := reel.Reduce(tc.plan, tc.res); got != tc.want {
			t.Fatalf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}
}
