package forces

import (
	"time"

	"go.uber.org/zap"
)

// MaxForces is the number of concurrent forces a Manager holds.
const MaxForces = 8

type slot struct {
	force  Force
	active bool
}

// Manager owns up to MaxForces concurrent forces for one actor. Entries live
// in a fixed table; AddForce and Tick never allocate. Not safe for concurrent
// use; the owning actor's tick is the single writer.
type Manager struct {
	logger      *zap.Logger
	maxSpeed    float64
	maxLifetime time.Duration
	slots       [MaxForces]slot
	nextSeq     uint64
}

// NewManager creates an empty Manager. Force magnitudes are clamped to
// maxSpeed and durations to maxLifetime at insertion.
//
// Precondition: logger must not be nil; maxSpeed > 0; maxLifetime > 0.
func NewManager(logger *zap.Logger, maxSpeed float64, maxLifetime time.Duration) *Manager {
	if logger == nil {
		panic("forces.NewManager: logger must not be nil")
	}
	if maxSpeed <= 0 || maxLifetime <= 0 {
		panic("forces.NewManager: maxSpeed and maxLifetime must be > 0")
	}
	return &Manager{logger: logger, maxSpeed: maxSpeed, maxLifetime: maxLifetime}
}

// AddForce inserts f, reporting whether it was accepted. Non-finite vectors
// or durations are rejected at the boundary and logged; they never reach the
// table. When the table is full the lowest-priority force (ties broken by
// oldest insertion) is evicted, but only if f's priority is strictly greater;
// otherwise the insert is a no-op.
//
// Postcondition: The table never exceeds MaxForces entries.
func (m *Manager) AddForce(f Force) bool {
	if f.Kind <= KindUnknown || f.Kind > Continuous {
		m.logger.Warn("rejecting force with invalid kind", zap.Int("kind", int(f.Kind)))
		return false
	}
	if !f.Vector.Finite() {
		m.logger.Warn("rejecting force with non-finite vector",
			zap.Float64("x", f.Vector.X), zap.Float64("y", f.Vector.Y))
		return false
	}
	if f.Duration < 0 {
		m.logger.Warn("rejecting force with negative duration", zap.Duration("duration", f.Duration))
		return false
	}

	if mag := f.Vector.Len(); mag > m.maxSpeed {
		f.Vector = f.Vector.Scale(m.maxSpeed / mag)
	}
	if f.Duration > m.maxLifetime {
		f.Duration = m.maxLifetime
	}
	f.remaining = f.Duration
	f.seq = m.nextSeq
	m.nextSeq++

	if i, ok := m.freeSlot(); ok {
		m.slots[i] = slot{force: f, active: true}
		return true
	}

	lowest := m.lowestSlot()
	if f.Priority <= m.slots[lowest].force.Priority {
		m.logger.Debug("force table full, insert refused",
			zap.Int("priority", f.Priority),
			zap.Int("lowest_priority", m.slots[lowest].force.Priority))
		return false
	}
	m.slots[lowest] = slot{force: f, active: true}
	return true
}

// Tick sums all active forces into the frame's displacement vector, applies
// decay curves, decrements remaining durations, and drops expired entries.
//
// Precondition: dt must be >= 0.
func (m *Manager) Tick(dt time.Duration) Vec2 {
	var sum Vec2
	for i := range m.slots {
		s := &m.slots[i]
		if !s.active {
			continue
		}
		f := &s.force
		switch f.Kind {
		case Instant:
			sum = sum.Add(f.Vector)
			s.active = false
		case Continuous:
			sum = sum.Add(f.Vector)
			f.remaining -= dt
			if f.remaining <= 0 {
				s.active = false
			}
		case Impulse:
			elapsed := f.Duration - f.remaining
			sum = sum.Add(f.Vector.Scale(f.scaleAt(elapsed)))
			f.remaining -= dt
			if f.remaining <= 0 {
				s.active = false
			}
		}
	}
	return sum
}

// Count returns the number of active forces.
func (m *Manager) Count() int {
	n := 0
	for i := range m.slots {
		if m.slots[i].active {
			n++
		}
	}
	return n
}

// Clear removes all forces.
func (m *Manager) Clear() {
	for i := range m.slots {
		m.slots[i].active = false
	}
}

func (m *Manager) freeSlot() (int, bool) {
	for i := range m.slots {
		if !m.slots[i].active {
			return i, true
		}
	}
	return 0, false
}

// lowestSlot returns the index of the lowest-priority active force, breaking
// ties by oldest insertion order.
//
// Precondition: the table is full.
func (m *Manager) lowestSlot() int {
	idx := 0
	for i := 1; i < len(m.slots); i++ {
		cur := m.slots[i].force
		low := m.slots[idx].force
		if cur.Priority < low.Priority || (cur.Priority == low.Priority && cur.seq < low.seq) {
			idx = i
		}
	}
	return idx
}
