// Package metrics provides an optional per-frame instrumentation hook for the
// bloom pipeline. A Recorder is nil-safe: every method on a nil *Recorder is
// a no-op, so the pipeline can call through unconditionally.
package metrics

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/bloom-go/effect/kernel"
)

// Recorder logs per-pass timings and a per-frame summary through an injected
// logrus logger. It is owned and driven by a single frame invocation at a
// time, matching the pipeline's single-threaded frame model.
type Recorder struct {
	log *logrus.Logger

	frameStart time.Time
	passStart  time.Time
	passCount  int
}

// NewRecorder creates a Recorder that writes to the given logger.
//
// Parameters:
//   - log: the logrus logger to write to (must not be nil)
//
// Returns:
//   - *Recorder: the recorder
func NewRecorder(log *logrus.Logger) *Recorder {
	return &Recorder{log: log}
}

// FrameStart marks the beginning of a frame.
//
// Parameters:
//   - width: working buffer width in pixels
//   - height: working buffer height in pixels
//   - iterations: the pyramid depth chosen for this frame
func (r *Recorder) FrameStart(width, height, iterations int) {
	if r == nil {
		return
	}
	r.frameStart = time.Now()
	r.passCount = 0
	r.log.WithFields(logrus.Fields{
		"width":      width,
		"height":     height,
		"iterations": iterations,
	}).Debug("bloom frame start")
}

// PassStart marks the beginning of a filter pass.
func (r *Recorder) PassStart() {
	if r == nil {
		return
	}
	r.passStart = time.Now()
}

// PassEnd logs the completion of a filter pass.
//
// Parameters:
//   - pass: the pass variant that ran
//   - width: destination width in pixels
//   - height: destination height in pixels
func (r *Recorder) PassEnd(pass kernel.Pass, width, height int) {
	if r == nil {
		return
	}
	r.passCount++
	r.log.WithFields(logrus.Fields{
		"pass":     pass.String(),
		"width":    width,
		"height":   height,
		"duration": time.Since(r.passStart),
	}).Debug("bloom pass")
}

// FrameEnd logs the per-frame summary.
//
// Parameters:
//   - acquired: number of temporary targets acquired this frame
//   - released: number of temporary targets released this frame
func (r *Recorder) FrameEnd(acquired, released int) {
	if r == nil {
		return
	}
	fields := logrus.Fields{
		"passes":   r.passCount,
		"acquired": acquired,
		"released": released,
		"duration": time.Since(r.frameStart),
	}
	if acquired != released {
		r.log.WithFields(fields).Warn("bloom frame leaked temporaries")
		return
	}
	r.log.WithFields(fields).Debug("bloom frame complete")
}

// FrameError logs a frame that aborted before compositing.
//
// Parameters:
//   - err: the error that aborted the frame
//   - acquired: number of temporary targets acquired before the abort
func (r *Recorder) FrameError(err error, acquired int) {
	if r == nil {
		return
	}
	r.log.WithFields(logrus.Fields{
		"acquired": acquired,
		"duration": time.Since(r.frameStart),
	}).WithError(err).Warn("bloom frame aborted")
}
