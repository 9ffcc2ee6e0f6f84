package app

import (
	"log/slog"
	"time"

	"github.com/Fabpk90/VulkanDiscovery/internal/render"
)

// frameStats accumulates tick outcomes between two reports.
type frameStats struct {
	interval time.Duration
	now      func() time.Duration
	start    time.Duration

	presented   int
	skipped     int
	recreations int
	busy        time.Duration
}

func newFrameStats(interval time.Duration, now func() time.Duration) *frameStats {
	return &frameStats{interval: interval, now: now, start: now()}
}

func (s *frameStats) record(result render.TickResult) {
	if result.Presented {
		s.presented++
	} else {
		s.skipped++
	}
	if result.Recreated {
		s.recreations++
	}
	s.busy += result.Elapsed
}

func (s *frameStats) meanFrameTime() time.Duration {
	ticks := s.presented + s.skipped
	if ticks == 0 {
		return 0
	}
	return s.busy / time.Duration(ticks)
}

// report logs and resets the counters once the interval has elapsed.
// A zero interval disables reporting.
func (s *frameStats) report(logger *slog.Logger) {
	if s.interval <= 0 || s.now()-s.start < s.interval {
		return
	}
	s.flush(logger)
}

func (s *frameStats) flush(logger *slog.Logger) {
	if s.interval <= 0 {
		return
	}

	elapsed := s.now() - s.start
	if s.presented+s.skipped > 0 {
		fps := 0.0
		if elapsed > 0 {
			fps = float64(s.presented) / elapsed.Seconds()
		}
		logger.Debug("frame statistics",
			"presented", s.presented,
			"skipped", s.skipped,
			"recreations", s.recreations,
			"meanFrameTime", s.meanFrameTime(),
			"fps", fps)
	}

	s.start = s.now()
	s.presented, s.skipped, s.recreations, s.busy = 0, 0, 0, 0
}
