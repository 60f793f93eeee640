package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, 4) // warn

	l.Info("hidden")
	l.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "key=value")
}

func TestComponent_AddsAttribute(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, 0).Component("watcher")

	l.Info("started")

	assert.Contains(t, buf.String(), "component=watcher")
}
