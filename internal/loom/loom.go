// Package loom hands work between background goroutines and the single
// goroutine that owns engine-visible state.
//
// A Loom is created once at startup and passed by pointer to everything that
// produces or consumes actions. Any goroutine may Enqueue; only the owning
// goroutine calls Drain, once per tick. Heavy work goes through Go, which
// runs it on its own goroutine and isolates panics.
package loom

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petermattis/goid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/logger"
)

var (
	// ErrConcurrentDrain is returned when Drain is entered while another drain is running.
	ErrConcurrentDrain = errors.New("loom: drain already in progress")

	// ErrNotOwner is returned when Drain is called from a goroutine other than
	// the one that drained first.
	ErrNotOwner = errors.New("loom: drain called off the owning goroutine")
)

// Action is a unit of work queued for the owning goroutine.
type Action func()

type delayedAction struct {
	due    time.Time
	action Action
}

// Loom is the cross-goroutine deferred action queue.
type Loom struct {
	clock Clock

	actionsMu sync.Mutex
	actions   []Action
	current   []Action // drained batch, reused between ticks

	delayedMu      sync.Mutex
	delayed        []delayedAction
	currentDelayed []delayedAction

	owner    atomic.Int64 // goroutine id bound by the first Drain, 0 until then
	draining atomic.Bool
	workers  sync.WaitGroup
	log      *zap.Logger
}

// New creates a Loom reading time from clock. A nil clock uses SystemClock.
func New(clock Clock) *Loom {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Loom{
		clock: clock,
		log:   logger.Named("loom"),
	}
}

// Clock returns the clock used for due times.
func (l *Loom) Clock() Clock {
	return l.clock
}

// Enqueue schedules action for the next drain.
func (l *Loom) Enqueue(action Action) {
	if action == nil {
		return
	}
	l.actionsMu.Lock()
	l.actions = append(l.actions, action)
	l.actionsMu.Unlock()
}

// EnqueueAfter schedules action for the first drain at or after now+delay.
// A non-positive delay is the same as Enqueue.
func (l *Loom) EnqueueAfter(action Action, delay time.Duration) {
	if action == nil {
		return
	}
	if delay <= 0 {
		l.Enqueue(action)
		return
	}
	due := l.clock.Now().Add(delay)
	l.delayedMu.Lock()
	l.delayed = append(l.delayed, delayedAction{due: due, action: action})
	l.delayedMu.Unlock()
}

// Pending reports how many immediate and delayed actions are waiting.
func (l *Loom) Pending() (immediate, delayed int) {
	l.actionsMu.Lock()
	immediate = len(l.actions)
	l.actionsMu.Unlock()
	l.delayedMu.Lock()
	delayed = len(l.delayed)
	l.delayedMu.Unlock()
	return immediate, delayed
}

// InDrain reports whether the calling goroutine is the owner and is
// currently executing a drain.
func (l *Loom) InDrain() bool {
	return l.draining.Load() && l.IsOwner()
}

// IsOwner reports whether the calling goroutine is the one bound by the
// first Drain.
func (l *Loom) IsOwner() bool {
	owner := l.owner.Load()
	return owner != 0 && owner == goid.Get()
}

// Drain runs every queued immediate action in submission order, then every
// delayed action whose due time has passed. It returns the number of actions run.
// Locks are held only while moving items, never while actions run, so actions
// may enqueue more work; that work runs on the next drain.
//
// The first goroutine to call Drain becomes the owner for the lifetime of the
// Loom; later calls from any other goroutine fail with ErrNotOwner.
func (l *Loom) Drain() (int, error) {
	id := goid.Get()
	if !l.owner.CompareAndSwap(0, id) && l.owner.Load() != id {
		return 0, ErrNotOwner
	}
	if !l.draining.CompareAndSwap(false, true) {
		return 0, ErrConcurrentDrain
	}
	defer l.draining.Store(false)

	l.actionsMu.Lock()
	l.current, l.actions = l.actions, l.current[:0]
	l.actionsMu.Unlock()

	ran := 0
	for i, a := range l.current {
		l.run(a)
		l.current[i] = nil
		ran++
	}

	now := l.clock.Now()
	l.delayedMu.Lock()
	l.currentDelayed = l.currentDelayed[:0]
	kept := l.delayed[:0]
	for _, d := range l.delayed {
		if !d.due.After(now) {
			l.currentDelayed = append(l.currentDelayed, d)
		} else {
			kept = append(kept, d)
		}
	}
	for i := len(kept); i < len(l.delayed); i++ {
		l.delayed[i] = delayedAction{}
	}
	l.delayed = kept
	l.delayedMu.Unlock()

	for i, d := range l.currentDelayed {
		l.run(d.action)
		l.currentDelayed[i] = delayedAction{}
		ran++
	}

	return ran, nil
}

func (l *Loom) run(a Action) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Warn("scheduled action panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	a()
}

// Go runs work on a new goroutine. A panic inside work is recovered and
// logged so it cannot take down the process or the caller.
func (l *Loom) Go(name string, work func()) {
	if work == nil {
		return
	}
	l.workers.Add(1)
	go func() {
		defer l.workers.Done()
		defer func() {
			if r := recover(); r != nil {
				l.log.Warn("worker task panicked",
					zap.String("task", name),
					zap.String("error", fmt.Sprint(r)),
					zap.ByteString("stack", debug.Stack()))
			}
		}()
		work()
	}()
}

// Wait blocks until every task started with Go has returned.
func (l *Loom) Wait() {
	l.workers.Wait()
}
