package models

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColor_Hex(t *testing.T) {
	t.Run("formats uppercase six digit hex", func(t *testing.T) {
		c := Color{R: 1, G: 0.4, B: 0}

		assert.Equal(t, "#FF6600", c.Hex())
	})

	t.Run("clamps out of range channels", func(t *testing.T) {
		assert.Equal(t, "#FF0000", Color{R: 2.5, G: -1, B: 0}.Hex())
	})

	t.Run("default color is blue", func(t *testing.T) {
		assert.Equal(t, "#3366FF", DefaultColor.Hex())
	})
}

func TestParseHex(t *testing.T) {
	t.Run("accepts with and without leading hash", func(t *testing.T) {
		withHash, ok := ParseHex("#FF6600")
		require.True(t, ok)
		withoutHash, ok := ParseHex("FF6600")
		require.True(t, ok)

		assert.Equal(t, withHash, withoutHash)
	})

	t.Run("drops the alpha byte of eight digit input", func(t *testing.T) {
		with, ok := ParseHex("#FF660080")
		require.True(t, ok)
		without, ok := ParseHex("#FF6600")
		require.True(t, ok)

		assert.Equal(t, without, with)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, s := range []string{"", "#", "#FFF", "#GGGGGG", "not a color", "#FF66001"} {
			_, ok := ParseHex(s)
			assert.False(t, ok, "expected %q to be rejected", s)
		}
	})
}

func TestColor_RoundTrip(t *testing.T) {
	// fromHex(toHex(c)) must reconstruct every channel within one step of
	// the 8-bit quantization.
	rng := rand.New(rand.NewSource(1))
	const tolerance = 1.0 / 255.0

	for i := 0; i < 1000; i++ {
		c := Color{R: rng.Float64(), G: rng.Float64(), B: rng.Float64()}

		parsed, ok := ParseHex(c.Hex())
		require.True(t, ok, "round %d: %q failed to parse", i, c.Hex())

		assert.LessOrEqual(t, math.Abs(parsed.R-c.R), tolerance)
		assert.LessOrEqual(t, math.Abs(parsed.G-c.G), tolerance)
		assert.LessOrEqual(t, math.Abs(parsed.B-c.B), tolerance)
	}
}

func TestColor_JSON(t *testing.T) {
	t.Run("round trips as a hex string", func(t *testing.T) {
		data, err := json.Marshal(Color{R: 1, G: 0.4, B: 0})
		require.NoError(t, err)
		assert.Equal(t, `"#FF6600"`, string(data))

		var c Color
		require.NoError(t, json.Unmarshal(data, &c))
		assert.Equal(t, "#FF6600", c.Hex())
	})

	t.Run("malformed hex falls back to the default", func(t *testing.T) {
		var c Color
		require.NoError(t, json.Unmarshal([]byte(`"#ZZZZZZ"`), &c))

		assert.Equal(t, DefaultColor, c)
	})
}
