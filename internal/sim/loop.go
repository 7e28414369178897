package sim

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/clock"
)

// Loop drives the arena in real time: a ticker fires at the frame interval,
// each tick advances the simulation clock, drains whole physics steps through
// the fixed-step accumulator, and runs one frame. The loop is the single
// writer of the simulation clock.
type Loop struct {
	arena       *Arena
	clk         *clock.Clock
	frameStep   time.Duration
	accumulator *clock.Accumulator
	logger      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLoop creates a loop over the arena.
//
// Precondition: arena, clk, and logger must not be nil; frameStep and
// physicsStep must be positive.
func NewLoop(arena *Arena, clk *clock.Clock, frameStep, physicsStep time.Duration, logger *zap.Logger) *Loop {
	if arena == nil {
		panic("sim.NewLoop: arena must not be nil")
	}
	if clk == nil {
		panic("sim.NewLoop: clock must not be nil")
	}
	if logger == nil {
		panic("sim.NewLoop: logger must not be nil")
	}
	if frameStep <= 0 {
		panic("sim.NewLoop: frameStep must be positive")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		arena:       arena,
		clk:         clk,
		frameStep:   frameStep,
		accumulator: clock.NewAccumulator(physicsStep),
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

// Tick advances the simulation by one frame interval: clock, physics steps,
// then the frame. Exposed so tests and headless bouts can run deterministic
// time without the wall-clock ticker.
func (l *Loop) Tick() {
	l.clk.Advance(l.frameStep)
	steps := l.accumulator.Steps(l.frameStep)
	for i := 0; i < steps; i++ {
		l.arena.Physics(l.accumulator.Step())
	}
	l.arena.Frame(l.frameStep)
}

// RunFor advances the simulation by the given span of simulated time without
// waiting on the wall clock. Stops early once the bout is decided.
func (l *Loop) RunFor(span time.Duration) {
	deadline := l.clk.Now() + span
	for l.clk.Now() < deadline {
		l.Tick()
		if _, done := l.arena.Winner(); done {
			return
		}
	}
}

// Start begins ticking in real time until ctx is cancelled or Stop is called.
// Satisfies the server lifecycle's Service contract: it blocks for the life
// of the loop.
func (l *Loop) Start() error {
	defer close(l.done)

	ticker := time.NewTicker(l.frameStep)
	defer ticker.Stop()

	l.logger.Info("simulation loop started",
		zap.Duration("frame_step", l.frameStep),
		zap.Duration("physics_step", l.accumulator.Step()),
	)
	for {
		select {
		case <-l.ctx.Done():
			l.logger.Info("simulation loop stopped",
				zap.Duration("sim_time", l.clk.Now()))
			return nil
		case <-ticker.C:
			l.Tick()
			if faction, done := l.arena.Winner(); done {
				l.logger.Info("bout decided",
					zap.String("winner", faction),
					zap.Duration("sim_time", l.clk.Now()))
				return nil
			}
		}
	}
}

// Stop cancels a running loop and waits for the final tick to finish.
func (l *Loop) Stop() {
	l.cancel()
	<-l.done
}
