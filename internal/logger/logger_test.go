package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithAddsField(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("debug", "json", &buf)

	log.With("repo", "acme/api").Infof("processed %d commits", 3)

	out := buf.String()
	assert.Contains(t, out, `"repo":"acme/api"`)
	assert.Contains(t, out, `"message":"processed 3 commits"`)
	assert.Contains(t, out, `"level":"info"`)
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("warn", "json", &buf)

	log.Debugf("hidden")
	log.Infof("hidden too")
	log.Warnf("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("chatty", "json", &buf)

	log.Debugf("debug line")
	log.Infof("info line")

	assert.NotContains(t, buf.String(), "debug line")
	assert.Contains(t, buf.String(), "info line")
}

func TestErrorIncludesCause(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", "json", &buf)

	log.Error("writing report failed", errors.New("disk full"))

	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), `"error":"disk full"`)
}
