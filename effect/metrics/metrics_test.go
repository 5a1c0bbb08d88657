package metrics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/bloom-go/effect/kernel"
)

// TestNilRecorderIsNoOp ensures every method tolerates a nil receiver so the
// pipeline can call through without guarding.
func TestNilRecorderIsNoOp(t *testing.T) {
	var r *Recorder
	r.FrameStart(64, 64, 3)
	r.PassStart()
	r.PassEnd(kernel.PassPrefilter, 32, 32)
	r.FrameEnd(4, 4)
	r.FrameError(nil, 0)
}

// TestRecorderLogsFrameSummary verifies the frame summary reaches the logger
// with the pass count and buffer accounting fields.
func TestRecorderLogsFrameSummary(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.DebugLevel)

	r := NewRecorder(log)
	r.FrameStart(128, 128, 2)
	r.PassStart()
	r.PassEnd(kernel.PassDownsample, 64, 64)
	r.FrameEnd(3, 3)

	out := buf.String()
	if !strings.Contains(out, "bloom frame complete") {
		t.Errorf("missing frame summary in output: %s", out)
	}
	if !strings.Contains(out, "passes=1") {
		t.Errorf("missing pass count in output: %s", out)
	}
}

// TestRecorderWarnsOnLeak verifies a mismatched acquire/release count is
// surfaced at warning level.
func TestRecorderWarnsOnLeak(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.DebugLevel)

	r := NewRecorder(log)
	r.FrameStart(64, 64, 1)
	r.FrameEnd(2, 1)

	if !strings.Contains(buf.String(), "leaked") {
		t.Errorf("expected leak warning, got: %s", buf.String())
	}
}
