package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucko515/residual-network/internal/backend/cpu"
	"github.com/lucko515/residual-network/internal/tensor"
)

func TestResNetForwardShape(t *testing.T) {
	backend := cpu.New()
	m := NewResNet(1, 10, backend)

	input := tensor.Zeros[float32](tensor.Shape{2, 1, 28, 28}, backend)
	logits := m.Forward(input)

	assert.True(t, logits.Shape().Equal(tensor.Shape{2, 10}), "logits shape %v", logits.Shape())
}

func TestResNetDepthSchedule(t *testing.T) {
	backend := cpu.New()

	m := NewResNet(3, 10, backend)
	assert.Equal(t, 20, m.Depth())
	assert.Equal(t, 9, m.NumUnits())

	m = NewResNet(1, 10, backend)
	assert.Equal(t, 8, m.Depth())
	assert.Equal(t, 3, m.NumUnits())
}

func TestResNetProjectionPlacement(t *testing.T) {
	backend := cpu.New()
	m := NewResNet(2, 10, backend)

	// Units 0-1: stage one, identity only. Units 2 and 4 start stages two
	// and three and must project; units 3 and 5 are identity again.
	wantProjection := []bool{false, false, true, false, true, false}
	require.Len(t, m.units, len(wantProjection))
	for i, want := range wantProjection {
		assert.Equal(t, want, m.units[i].HasProjection(), "unit %d", i)
	}
}

func TestResNetParameterCount(t *testing.T) {
	backend := cpu.New()
	m := NewResNet(1, 10, backend)

	assert.Greater(t, m.CountParameters(), 50_000)
	assert.Less(t, m.CountParameters(), 150_000)
	assert.NotEmpty(t, m.Parameters())
}

func TestResNetInvalidDepth(t *testing.T) {
	backend := cpu.New()
	assert.Panics(t, func() {
		NewResNet(0, 10, backend)
	})
}
