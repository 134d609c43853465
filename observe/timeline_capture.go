package observe

import (
	"context"
	"sync/atomic"
)

// TimelineCapture holds the timeline of a call after it completes.
type TimelineCapture struct {
	tl atomic.Pointer[Timeline]
}

// Timeline returns the captured timeline, or nil until the call completes.
func (c *TimelineCapture) Timeline() *Timeline {
	if c == nil {
		return nil
	}
	return c.tl.Load()
}

func (c *TimelineCapture) store(tl *Timeline) {
	if c == nil || tl == nil {
		return
	}
	c.tl.Store(tl)
}

type timelineCaptureKey struct{}

// RecordTimeline returns a derived context that requests timeline capture for
// the next executor call, plus a holder for retrieving the completed timeline.
func RecordTimeline(ctx context.Context) (context.Context, *TimelineCapture) {
	if ctx == nil {
		ctx = context.Background()
	}
	capture := &TimelineCapture{}
	return context.WithValue(ctx, timelineCaptureKey{}, capture), capture
}

// TimelineCaptureFromContext returns the capture requested on ctx, if any.
func TimelineCaptureFromContext(ctx context.Context) (*TimelineCapture, bool) {
	if ctx == nil {
		return nil, false
	}
	c, ok := ctx.Value(timelineCaptureKey{}).(*TimelineCapture)
	return c, ok && c != nil
}

// WithoutTimelineCapture hides any capture on ctx, so executor calls nested
// inside an action do not overwrite the outer call's timeline.
func WithoutTimelineCapture(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, timelineCaptureKey{}, (*TimelineCapture)(nil))
}

// StoreTimelineCapture publishes the finished timeline into capture.
func StoreTimelineCapture(capture *TimelineCapture, tl *Timeline) {
	capture.store(tl)
}
