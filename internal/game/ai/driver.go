// Package ai defines the decision-layer contract for opponent actors: a
// driver observes a snapshot of the fight each frame and pushes intents into
// its actor's buffer. The state machine consumes those intents exactly as it
// consumes player input, so drivers and players share one action pipeline.
//
// Deliberate scope limit: no planning and no pathfinding live here. A driver
// reacts to the view it is handed.
package ai

import (
	"time"

	"github.com/cory-johannsen/skirmish/internal/game/forces"
	"github.com/cory-johannsen/skirmish/internal/game/intent"
)

// View is the per-frame snapshot a driver decides from.
type View struct {
	TargetInRange     bool
	TargetDirection   forces.Vec2
	TargetBlocking    bool
	SelfHealthNorm    float64
	SelfStaminaNorm   float64
	TargetHealthNorm  float64
}

// Driver decides actions for one actor. Act runs once per simulation frame
// before the actor's machine executes; it may push any number of intents.
type Driver interface {
	Act(now time.Duration, view View)
}

// DriverFunc adapts a function to the Driver interface.
type DriverFunc func(now time.Duration, view View)

// Act implements Driver.
func (f DriverFunc) Act(now time.Duration, view View) { f(now, view) }

// Pusher is the slice of the actor surface a driver needs: its intent buffer.
type Pusher interface {
	Push(kind intent.Kind, dir intent.Direction)
}
