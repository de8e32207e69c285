package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInt(t *testing.T) {
	assert.Equal(t, 3, Int(3))
	assert.Equal(t, 3, Int(int64(3)))
	assert.Equal(t, 3, Int(3.9))
	assert.Zero(t, Int("3"))
	assert.Zero(t, Int(nil))
}

func TestFloat(t *testing.T) {
	assert.InDelta(t, 0.5, Float(0.5), 1e-9)
	assert.InDelta(t, 2.0, Float(int64(2)), 1e-9)
	assert.InDelta(t, 2.0, Float(2), 1e-9)
	assert.Zero(t, Float(true))
}

func TestScalars(t *testing.T) {
	assert.Equal(t, "x", String("x"))
	assert.Empty(t, String(1))
	assert.True(t, Bool(true))
	assert.False(t, Bool("true"))
}

func TestStringSlice(t *testing.T) {
	assert.Equal(t, []string{"a"}, StringSlice([]string{"a"}))
	assert.Equal(t, []string{"a", "c"}, StringSlice([]any{"a", 2, "c"}))
	assert.Nil(t, StringSlice("a"))
	assert.Nil(t, StringSlice(nil))
}
