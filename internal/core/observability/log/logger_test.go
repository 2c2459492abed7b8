package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		" fatal ": LevelFatal,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestSetLevelPropagatesToChildren(t *testing.T) {
	logger := NewWithOptions(Options{Level: LevelInfo, Encoding: "console"})
	child := logger.With(String("component", "test"))

	logger.SetLevel(LevelError)
	assert.Equal(t, LevelError, logger.GetLevel())
	assert.Equal(t, LevelError, child.GetLevel())
}

func TestFieldsDoNotPanic(t *testing.T) {
	logger := NewNop()
	assert.NotPanics(t, func() {
		logger.Info("fields",
			Bool("b", true),
			Duration("d", time.Millisecond),
			Float32("f32", 1),
			Float64("f64", 2),
			Int("i", 3),
			Int64("i64", 4),
			Uint64("u64", 5),
			String("s", "x"),
			Stringer("level", LevelWarn),
			Error(errors.New("boom")),
			Error(nil),
			Any("any", []int{1}),
		)
	})
}
