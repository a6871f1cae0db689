package logging

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":         zerolog.InfoLevel,
		"info":     zerolog.InfoLevel,
		" DEBUG ":  zerolog.DebugLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
		"verbose":  zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}

func TestSelectWriter(t *testing.T) {
	_, isConsole := selectWriter("console", os.Stderr).(zerolog.ConsoleWriter)
	assert.True(t, isConsole)

	assert.Equal(t, os.Stderr, selectWriter("json", os.Stderr))
}

func TestInitSetsGlobalLevel(t *testing.T) {
	previous := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(previous) })

	Init(Config{Format: "json", Level: "warn", Component: "poamd"})
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}
