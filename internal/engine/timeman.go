package engine

import (
	"time"

	"github.com/hailam/chesscore/internal/board"
)

// ClockLimits are the clock parameters of a UCI "go" command.
type ClockLimits struct {
	Time      [2]time.Duration // wtime, btime
	Inc       [2]time.Duration // winc, binc
	MovesToGo int              // 0 = sudden death
	MoveTime  time.Duration    // fixed time per move, overrides the clock
	Depth     int
	Infinite  bool
}

// TimeManager turns clock limits into a budget for one move.
type TimeManager struct {
	optimumTime time.Duration
	maximumTime time.Duration
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init computes the budget for side us at game ply ply.
// A zero budget means the search is bounded by depth alone.
func (tm *TimeManager) Init(limits ClockLimits, us board.Color, ply int) {
	tm.optimumTime, tm.maximumTime = 0, 0

	if limits.MoveTime > 0 {
		tm.optimumTime = limits.MoveTime
		tm.maximumTime = limits.MoveTime
		return
	}
	if limits.Infinite || us > board.Black || limits.Time[us] == 0 {
		return
	}

	timeLeft := limits.Time[us]
	inc := limits.Inc[us]

	mtg := limits.MovesToGo
	if mtg == 0 {
		mtg = min(max(50-ply/4, 10), 50)
	}

	tm.optimumTime = timeLeft/time.Duration(mtg) + inc*9/10
	tm.maximumTime = min(tm.optimumTime*5, timeLeft*8/10)

	if tm.optimumTime < 10*time.Millisecond {
		tm.optimumTime = 10 * time.Millisecond
	}
	if tm.maximumTime < 50*time.Millisecond {
		tm.maximumTime = 50 * time.Millisecond
	}
}

// OptimumTime returns the target time for this move.
func (tm *TimeManager) OptimumTime() time.Duration {
	return tm.optimumTime
}

// MaximumTime returns the maximum time allowed.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximumTime
}

// Limits converts the budget into search limits with the given depth cap.
func (tm *TimeManager) Limits(depth int) SearchLimits {
	return SearchLimits{Depth: depth, MoveTime: tm.optimumTime}
}
