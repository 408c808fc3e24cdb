package games

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/hongminglow/minigames-be/internal/models"
)

// ReactionState is a phase of the reaction timer.
type ReactionState string

const (
	Waiting  ReactionState = "waiting"
	Armed    ReactionState = "armed"
	Go       ReactionState = "go"
	Clicked  ReactionState = "clicked"
	TooEarly ReactionState = "too-early"
)

// Bounds of the random delay between arming and the go signal.
const (
	MinDelay = 2000 * time.Millisecond
	MaxDelay = 5000 * time.Millisecond
)

// recentWindow is how many reaction times Recent keeps.
const recentWindow = 5

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ReactionOption customises a ReactionTimer.
type ReactionOption func(*ReactionTimer)

// WithClock replaces the time source.
func WithClock(now func() time.Time) ReactionOption {
	return func(r *ReactionTimer) { r.now = now }
}

// WithScheduler replaces time.AfterFunc.
func WithScheduler(s Scheduler) ReactionOption {
	return func(r *ReactionTimer) { r.sched = s }
}

// WithRand sets the source for the arming delay.
func WithRand(rng *rand.Rand) ReactionOption {
	return func(r *ReactionTimer) { r.rng = rng }
}

// WithOnGo registers a callback run, outside the timer's lock, each time the
// go signal fires.
func WithOnGo(f func()) ReactionOption {
	return func(r *ReactionTimer) { r.onGo = f }
}

// ReactionTimer measures the time between a randomly delayed go signal and
// the player's click. At most one go transition is pending at a time; Arm
// and Reset cancel it, and a callback from a superseded arm never changes
// state.
type ReactionTimer struct {
	mu      sync.Mutex
	state   ReactionState
	goAt    time.Time
	pending Timer
	gen     uint64

	attempts int
	best     int
	recent   []int

	now   func() time.Time
	sched Scheduler
	rng   *rand.Rand
	onGo  func()
}

// NewReactionTimer returns a timer in the waiting state.
func NewReactionTimer(opts ...ReactionOption) *ReactionTimer {
	r := &ReactionTimer{
		state: Waiting,
		now:   time.Now,
		sched: realScheduler{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.rng = newRand(r.rng)
	return r
}

// Arm starts an attempt: any pending go signal is cancelled and a new one is
// scheduled after a uniform delay in [MinDelay, MaxDelay]. The chosen delay
// is returned.
func (r *ReactionTimer) Arm() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelLocked()
	r.state = Armed
	gen := r.gen
	delay := MinDelay + time.Duration(r.rng.Int64N(int64(MaxDelay-MinDelay)/int64(time.Millisecond)+1))*time.Millisecond
	r.pending = r.sched.AfterFunc(delay, func() { r.fire(gen) })
	return delay
}

func (r *ReactionTimer) fire(gen uint64) {
	r.mu.Lock()
	if gen != r.gen || r.state != Armed {
		r.mu.Unlock()
		return
	}
	r.state = Go
	r.goAt = r.now()
	r.pending = nil
	onGo := r.onGo
	r.mu.Unlock()

	if onGo != nil {
		onGo()
	}
}

// Click reacts to the player. While armed it ends the attempt as too early
// with no outcome; on go it returns the elapsed milliseconds as a completed
// outcome. Clicks in other states change nothing.
func (r *ReactionTimer) Click() (ReactionState, *Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case Armed:
		r.cancelLocked()
		r.state = TooEarly
		return r.state, nil
	case Go:
		now := r.now()
		elapsed := int(now.Sub(r.goAt).Milliseconds())
		if elapsed < 0 {
			elapsed = 0
		}
		r.state = Clicked
		r.attempts++
		if r.attempts == 1 || elapsed < r.best {
			r.best = elapsed
		}
		r.recent = append(r.recent, elapsed)
		if len(r.recent) > recentWindow {
			r.recent = r.recent[len(r.recent)-recentWindow:]
		}
		return r.state, &Outcome{
			GameType:  models.GameReactionTime,
			Score:     elapsed,
			Result:    models.ResultCompleted,
			Timestamp: now,
		}
	default:
		return r.state, nil
	}
}

// Reset cancels any pending go signal and returns to waiting.
func (r *ReactionTimer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelLocked()
	r.state = Waiting
}

// ResetStats clears best, recent and attempt counters and resets the timer.
func (r *ReactionTimer) ResetStats() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelLocked()
	r.state = Waiting
	r.attempts = 0
	r.best = 0
	r.recent = nil
}

// State returns the current phase.
func (r *ReactionTimer) State() ReactionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Best returns the fastest completed reaction in ms, or 0 before any.
func (r *ReactionTimer) Best() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.best
}

// Attempts returns the number of completed reactions.
func (r *ReactionTimer) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

// Recent returns up to the last five completed reaction times, oldest first.
func (r *ReactionTimer) Recent() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.recent))
	copy(out, r.recent)
	return out
}

// Average returns the mean of Recent rounded to the nearest ms, or 0.
func (r *ReactionTimer) Average() int {
	recent := r.Recent()
	if len(recent) == 0 {
		return 0
	}
	sum := 0
	for _, v := range recent {
		sum += v
	}
	return (sum + len(recent)/2) / len(recent)
}

// cancelLocked stops the pending timer and invalidates its callback.
func (r *ReactionTimer) cancelLocked() {
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
	r.gen++
}
