package intent_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/skirmish/internal/game/clock"
	"github.com/cory-johannsen/skirmish/internal/game/intent"
)

func TestBuffer_PushAndConsume(t *testing.T) {
	clk := clock.New()
	buf := intent.NewBuffer(clk)

	buf.Push(intent.Dodge, intent.Direction{X: 1})
	clk.Advance(50 * time.Millisecond)

	got, ok := buf.TryConsume(intent.Dodge, 200*time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, intent.Dodge, got.Kind)
	assert.Equal(t, time.Duration(0), got.Timestamp)
	assert.Equal(t, 1.0, got.Direction.X)
}

func TestBuffer_ConsumeOnce(t *testing.T) {
	clk := clock.New()
	buf := intent.NewBuffer(clk)

	buf.Push(intent.LightAttack, intent.Direction{})
	_, ok := buf.TryConsume(intent.LightAttack, time.Second)
	require.True(t, ok)

	// The same buffered input never satisfies two consumers.
	_, ok = buf.TryConsume(intent.LightAttack, time.Second)
	assert.False(t, ok)
}

func TestBuffer_ExpiredIntentIsInert(t *testing.T) {
	clk := clock.New()
	buf := intent.NewBuffer(clk)

	buf.Push(intent.Parry, intent.Direction{})
	clk.Advance(300 * time.Millisecond)

	_, ok := buf.TryConsume(intent.Parry, 200*time.Millisecond)
	assert.False(t, ok)

	// Expiry is permanent for that entry; a shorter window later cannot revive it.
	_, ok = buf.TryConsume(intent.Parry, time.Hour)
	assert.False(t, ok)
}

func TestBuffer_NewerPushOverwrites(t *testing.T) {
	clk := clock.New()
	buf := intent.NewBuffer(clk)

	buf.Push(intent.HeavyAttack, intent.Direction{X: -1})
	_, ok := buf.TryConsume(intent.HeavyAttack, time.Second)
	require.True(t, ok)

	// A fresh push replaces the consumed entry and is consumable again.
	clk.Advance(10 * time.Millisecond)
	buf.Push(intent.HeavyAttack, intent.Direction{X: 1})
	got, ok := buf.TryConsume(intent.HeavyAttack, time.Second)
	require.True(t, ok)
	assert.Equal(t, 10*time.Millisecond, got.Timestamp)
	assert.Equal(t, 1.0, got.Direction.X)
}

func TestBuffer_KindsAreIndependent(t *testing.T) {
	clk := clock.New()
	buf := intent.NewBuffer(clk)

	buf.Push(intent.Block, intent.Direction{})
	buf.Push(intent.Dodge, intent.Direction{})

	_, ok := buf.TryConsume(intent.Block, time.Second)
	assert.True(t, ok)
	_, ok = buf.TryConsume(intent.Dodge, time.Second)
	assert.True(t, ok)
}

func TestBuffer_InvalidKindRejected(t *testing.T) {
	clk := clock.New()
	buf := intent.NewBuffer(clk)

	buf.Push(intent.KindUnknown, intent.Direction{})
	_, ok := buf.TryConsume(intent.KindUnknown, time.Second)
	assert.False(t, ok)
}

func TestBuffer_Peek(t *testing.T) {
	clk := clock.New()
	buf := intent.NewBuffer(clk)

	buf.Push(intent.Move, intent.Direction{Y: 1})

	_, ok := buf.Peek(intent.Move, time.Second)
	require.True(t, ok)

	// Peek does not consume.
	_, ok = buf.TryConsume(intent.Move, time.Second)
	assert.True(t, ok)
}
