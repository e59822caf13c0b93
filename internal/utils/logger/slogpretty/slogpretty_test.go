package slogpretty

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestPrettyHandlerKeepsLoggerAttrs(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	opts := PrettyHandlerOptions{SlogOpts: &slog.HandlerOptions{Level: slog.LevelDebug}}
	log := slog.New(opts.NewPrettyHandler(&buf)).With(slog.String("component", "scoring"))

	log.Info("rollup computed", slog.Int("services", 3))

	out := buf.String()
	assert.Contains(t, out, "INFO:")
	assert.Contains(t, out, "rollup computed")
	assert.Contains(t, out, `"component": "scoring"`)
	assert.Contains(t, out, `"services": 3`)
}
