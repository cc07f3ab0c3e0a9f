package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Color is a display color with channels in [0, 1]. No alpha: pins render
// fully opaque, and member colors drop their alpha byte on parse.
type Color struct {
	R float64
	G float64
	B float64
}

// DefaultColor is the blue substituted whenever a record carries no color or
// a color that fails to parse.
var DefaultColor = Color{R: 0x33 / 255.0, G: 0x66 / 255.0, B: 0xFF / 255.0}

// Hex formats the color as "#RRGGBB", clamping each channel to [0, 255] and
// rounding to the nearest integer.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", channelByte(c.R), channelByte(c.G), channelByte(c.B))
}

func channelByte(v float64) int {
	scaled := math.Round(v * 255)
	if scaled < 0 {
		return 0
	}
	if scaled > 255 {
		return 255
	}
	return int(scaled)
}

// ParseHex parses "#RRGGBB" (leading '#' optional). An 8-digit form with a
// trailing alpha byte is accepted and the alpha is discarded. Returns false
// on any other input so the caller can substitute DefaultColor.
func ParseHex(s string) (Color, bool) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "#")
	if len(cleaned) != 6 && len(cleaned) != 8 {
		return Color{}, false
	}

	v, err := strconv.ParseUint(cleaned, 16, 64)
	if err != nil {
		return Color{}, false
	}
	if len(cleaned) == 8 {
		v >>= 8 // drop alpha
	}

	return Color{
		R: float64((v>>16)&0xFF) / 255.0,
		G: float64((v>>8)&0xFF) / 255.0,
		B: float64(v&0xFF) / 255.0,
	}, true
}

// MarshalJSON encodes the color as its hex string.
func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Hex())
}

// UnmarshalJSON decodes a hex string, falling back to DefaultColor on
// malformed input rather than failing the surrounding record.
func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := ParseHex(s)
	if !ok {
		*c = DefaultColor
		return nil
	}
	*c = parsed
	return nil
}
