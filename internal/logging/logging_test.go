package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewDefaultsUnknownLevelToInfo(t *testing.T) {
	l := New("bogus", "text")
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}

func TestNewRespectsExplicitLevel(t *testing.T) {
	l := New("debug", "json")
	assert.Equal(t, zerolog.DebugLevel, l.GetLevel())
}

func TestSetLevelUpdatesInPlace(t *testing.T) {
	l := New("info", "text")
	SetLevel(&l, "warn")
	assert.Equal(t, zerolog.WarnLevel, l.GetLevel())
}
