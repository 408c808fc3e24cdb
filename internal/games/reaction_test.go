package games

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/minigames-be/internal/models"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeScheduler struct {
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) last() *fakeTimer {
	return s.timers[len(s.timers)-1]
}

type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time { return c.t }

func newTestTimer(opts ...ReactionOption) (*ReactionTimer, *fakeScheduler, *stepClock) {
	sched := &fakeScheduler{}
	clock := &stepClock{t: time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]ReactionOption{
		WithScheduler(sched),
		WithClock(clock.Now),
		WithRand(rand.New(rand.NewPCG(11, 12))),
	}, opts...)
	return NewReactionTimer(opts...), sched, clock
}

func TestReactionTimer_DelayWithinBounds(t *testing.T) {
	r, sched, _ := newTestTimer()
	for i := 0; i < 500; i++ {
		d := r.Arm()
		assert.GreaterOrEqual(t, d, MinDelay)
		assert.LessOrEqual(t, d, MaxDelay)
		assert.Equal(t, d, sched.last().d)
	}
}

func TestReactionTimer_ClickWhileArmedIsTooEarly(t *testing.T) {
	r, sched, _ := newTestTimer()
	r.Arm()
	require.Equal(t, Armed, r.State())

	state, outcome := r.Click()
	assert.Equal(t, TooEarly, state)
	assert.Nil(t, outcome)
	assert.True(t, sched.last().stopped)

	// The cancelled callback must not resurrect the attempt.
	sched.last().f()
	assert.Equal(t, TooEarly, r.State())
	assert.Zero(t, r.Attempts())
}

func TestReactionTimer_ClickOnGo(t *testing.T) {
	var goes int
	r, sched, clock := newTestTimer(WithOnGo(func() { goes++ }))
	r.Arm()

	sched.last().f()
	require.Equal(t, Go, r.State())
	assert.Equal(t, 1, goes)

	clock.t = clock.t.Add(237 * time.Millisecond)
	state, outcome := r.Click()
	assert.Equal(t, Clicked, state)
	require.NotNil(t, outcome)
	assert.Equal(t, models.GameReactionTime, outcome.GameType)
	assert.Equal(t, models.ResultCompleted, outcome.Result)
	assert.Equal(t, 237, outcome.Score)
	assert.Equal(t, 237, r.Best())

	// Further clicks are ignored.
	state, outcome = r.Click()
	assert.Equal(t, Clicked, state)
	assert.Nil(t, outcome)
}

func TestReactionTimer_ElapsedNeverNegative(t *testing.T) {
	r, sched, clock := newTestTimer()
	r.Arm()
	sched.last().f()

	clock.t = clock.t.Add(-time.Second)
	_, outcome := r.Click()
	require.NotNil(t, outcome)
	assert.Equal(t, 0, outcome.Score)
}

func TestReactionTimer_ArmSupersedesPending(t *testing.T) {
	r, sched, _ := newTestTimer()
	r.Arm()
	first := sched.last()
	r.Arm()
	second := sched.last()

	assert.True(t, first.stopped)
	assert.False(t, second.stopped)

	first.f()
	assert.Equal(t, Armed, r.State(), "stale callback fired")

	second.f()
	assert.Equal(t, Go, r.State())
}

func TestReactionTimer_ResetCancels(t *testing.T) {
	r, sched, _ := newTestTimer()
	r.Arm()
	r.Reset()

	assert.Equal(t, Waiting, r.State())
	assert.True(t, sched.last().stopped)

	sched.last().f()
	assert.Equal(t, Waiting, r.State())
}

func TestReactionTimer_Stats(t *testing.T) {
	r, sched, clock := newTestTimer()
	for _, ms := range []int{300, 250, 400, 200, 350, 310} {
		r.Arm()
		sched.last().f()
		clock.t = clock.t.Add(time.Duration(ms) * time.Millisecond)
		_, outcome := r.Click()
		require.NotNil(t, outcome)
	}

	assert.Equal(t, 6, r.Attempts())
	assert.Equal(t, 200, r.Best())
	assert.Equal(t, []int{250, 400, 200, 350, 310}, r.Recent())
	assert.Equal(t, 302, r.Average())

	r.ResetStats()
	assert.Zero(t, r.Attempts())
	assert.Zero(t, r.Best())
	assert.Empty(t, r.Recent())
	assert.Zero(t, r.Average())
}

func TestReactionTimer_RealScheduler(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a real 2-5s delay")
	}
	var wg sync.WaitGroup
	wg.Add(1)
	r := NewReactionTimer(WithOnGo(wg.Done))
	r.Arm()
	wg.Wait()

	assert.Equal(t, Go, r.State())
	_, outcome := r.Click()
	require.NotNil(t, outcome)
	assert.GreaterOrEqual(t, outcome.Score, 0)
}
