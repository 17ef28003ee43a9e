package engine

import (
	"time"

	"github.com/rglenister/natto/internal/board"
)

// SearchLimits carries the constraints of a UCI go command.
type SearchLimits struct {
	Time      [2]time.Duration // remaining time per color
	Inc       [2]time.Duration // increment per color
	MovesToGo int              // moves to the next time control, 0 = sudden death
	MoveTime  time.Duration    // fixed time for this move
	Depth     int              // maximum depth, 0 = none
	Nodes     uint64           // maximum nodes, 0 = none
	Infinite  bool             // search until stopped
}

// TimeManager turns a time control into a soft budget (don't start another
// iteration past it) and a hard budget (abort the search outright).
type TimeManager struct {
	base  time.Duration // unscaled soft budget
	soft  time.Duration
	hard  time.Duration
	start time.Time
}

// NewTimeManager returns an uninitialised time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init computes the budgets for the side to move at the given game ply.
func (tm *TimeManager) Init(limits SearchLimits, us board.Color, ply int) {
	tm.start = time.Now()

	if limits.MoveTime > 0 {
		tm.base = limits.MoveTime
		tm.soft = limits.MoveTime
		tm.hard = limits.MoveTime
		return
	}

	if limits.Infinite || limits.Time[us] == 0 {
		tm.base = time.Hour
		tm.soft = time.Hour
		tm.hard = time.Hour
		return
	}

	timeLeft := limits.Time[us]
	inc := limits.Inc[us]

	mtg := limits.MovesToGo
	if mtg == 0 {
		// Sudden death: assume fewer moves remain as the game goes on.
		mtg = 50 - ply/4
		if mtg < 10 {
			mtg = 10
		}
	}

	base := timeLeft/time.Duration(mtg) + inc*9/10
	if base < 10*time.Millisecond {
		base = 10 * time.Millisecond
	}
	tm.base = base
	tm.soft = base

	tm.hard = base * 4
	if max := timeLeft * 8 / 10; tm.hard > max {
		tm.hard = max
	}
	if tm.hard < 50*time.Millisecond {
		tm.hard = 50 * time.Millisecond
	}
}

// Elapsed returns the time since Init.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.start)
}

// Deadline returns the hard cutoff as a wall-clock time.
func (tm *TimeManager) Deadline() time.Time {
	return tm.start.Add(tm.hard)
}

// PastSoft reports whether the soft budget is spent; the driver then
// finishes the current iteration but starts no new one.
func (tm *TimeManager) PastSoft() bool {
	return tm.Elapsed() >= tm.soft
}

// ScaleSoft adjusts the soft budget for best-move stability: a move that
// has not changed for several iterations needs less confirmation. Scaling
// is applied to the unscaled base, so repeated calls do not compound.
func (tm *TimeManager) ScaleSoft(stability int) {
	switch {
	case stability >= 6:
		tm.soft = tm.base * 40 / 100
	case stability >= 4:
		tm.soft = tm.base * 60 / 100
	case stability >= 2:
		tm.soft = tm.base * 80 / 100
	default:
		tm.soft = tm.base
	}
}
