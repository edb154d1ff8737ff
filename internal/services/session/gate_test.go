package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGateReportsOnlyChanges(t *testing.T) {
	var changes []bool
	g := NewGate(func(enabled bool) { changes = append(changes, enabled) })

	assert.True(t, g.Enabled())
	g.SetInteractionEnabled(true)
	g.SetInteractionEnabled(false)
	g.SetInteractionEnabled(false)
	g.SetInteractionEnabled(true)

	assert.True(t, g.Enabled())
	assert.Equal(t, []bool{false, true}, changes)
}

func TestGateWithoutCallback(t *testing.T) {
	g := NewGate(nil)
	g.SetInteractionEnabled(false)
	assert.False(t, g.Enabled())
}
