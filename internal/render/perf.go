package render

import (
	"sync/atomic"
	"time"
)

// FrameMetrics tracks frame timing. FPS is averaged over windows of at
// least updatePeriod of recorded frame time, so it follows the frames
// actually produced rather than the wall clock. It is safe for concurrent
// use.
type FrameMetrics struct {
	frameCount    atomic.Int64
	periodFrames  atomic.Int64
	periodTime    atomic.Int64 // nanoseconds recorded in the current window
	lastFPS       atomic.Int64 // FPS * 1000
	lastFrameTime atomic.Int64 // nanoseconds
	minFrameTime  atomic.Int64
	maxFrameTime  atomic.Int64
	totalTime     atomic.Int64
	updatePeriod  time.Duration
}

// NewFrameMetrics creates a new FrameMetrics instance.
// The updatePeriod determines how often FPS is recalculated (default: 1 second).
func NewFrameMetrics(updatePeriod time.Duration) *FrameMetrics {
	if updatePeriod <= 0 {
		updatePeriod = time.Second
	}
	fm := &FrameMetrics{updatePeriod: updatePeriod}
	fm.minFrameTime.Store(int64(time.Hour))
	return fm
}

// RecordFrame records a new frame with its duration.
func (fm *FrameMetrics) RecordFrame(frameTime time.Duration) {
	frameNanos := frameTime.Nanoseconds()

	fm.frameCount.Add(1)
	fm.lastFrameTime.Store(frameNanos)
	fm.totalTime.Add(frameNanos)

	for {
		currentMin := fm.minFrameTime.Load()
		if frameNanos >= currentMin || fm.minFrameTime.CompareAndSwap(currentMin, frameNanos) {
			break
		}
	}
	for {
		currentMax := fm.maxFrameTime.Load()
		if frameNanos <= currentMax || fm.maxFrameTime.CompareAndSwap(currentMax, frameNanos) {
			break
		}
	}

	frames := fm.periodFrames.Add(1)
	elapsed := fm.periodTime.Add(frameNanos)
	if elapsed >= int64(fm.updatePeriod) {
		fm.lastFPS.Store(frames * 1000 * int64(time.Second) / elapsed)
		fm.periodFrames.Store(0)
		fm.periodTime.Store(0)
	}
}

// FPS returns the frames per second of the last complete window. Before the
// first window completes it is derived from the last frame alone.
func (fm *FrameMetrics) FPS() float64 {
	if fps := fm.lastFPS.Load(); fps > 0 {
		return float64(fps) / 1000
	}
	if last := fm.lastFrameTime.Load(); last > 0 {
		return float64(time.Second) / float64(last)
	}
	return 0
}

// Frames returns the number of frames recorded since the last Reset.
func (fm *FrameMetrics) Frames() int64 {
	return fm.frameCount.Load()
}

// LastFrameTime returns the duration of the last frame.
func (fm *FrameMetrics) LastFrameTime() time.Duration {
	return time.Duration(fm.lastFrameTime.Load())
}

// MinFrameTime returns the minimum frame time recorded.
func (fm *FrameMetrics) MinFrameTime() time.Duration {
	return time.Duration(fm.minFrameTime.Load())
}

// MaxFrameTime returns the maximum frame time recorded.
func (fm *FrameMetrics) MaxFrameTime() time.Duration {
	return time.Duration(fm.maxFrameTime.Load())
}

// AverageFrameTime returns the average frame time.
func (fm *FrameMetrics) AverageFrameTime() time.Duration {
	count := fm.frameCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(fm.totalTime.Load() / count)
}

// Reset clears all metrics to their initial state.
func (fm *FrameMetrics) Reset() {
	fm.frameCount.Store(0)
	fm.periodFrames.Store(0)
	fm.periodTime.Store(0)
	fm.lastFPS.Store(0)
	fm.lastFrameTime.Store(0)
	fm.minFrameTime.Store(int64(time.Hour))
	fm.maxFrameTime.Store(0)
	fm.totalTime.Store(0)
}
