package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestSetLevel(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  DeBuG ", zerolog.DebugLevel},
		{"", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"nope", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		SetLevel(tc.in)
		assert.Equal(t, tc.want, zerolog.GlobalLevel(), "SetLevel(%q)", tc.in)
	}
}

func TestStep_LogsAtDebug(t *testing.T) {
	orig := zerolog.GlobalLevel()
	prev := log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(orig)
		log.Logger = prev
	})

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)

	SetLevel("info")
	Step("quiet")()
	assert.Empty(t, buf.String())

	SetLevel("debug")
	Step("grant")()
	assert.Contains(t, buf.String(), `"step":"grant"`)
}
