package pages

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePage(t *testing.T) {
	tests := map[string]int{
		"":    1,
		"1":   1,
		"3":   3,
		" 2 ": 2,
		"0":   1,
		"-4":  1,
		"abc": 1,
		"2.5": 1,
	}
	for raw, want := range tests {
		assert.Equal(t, want, ParsePage(raw), "page %q", raw)
	}
}

func TestNewRange(t *testing.T) {
	r := NewRange(1, 5)
	assert.Equal(t, Range{Start: 0, Finish: 5}, r)
	assert.Equal(t, 5, r.Limit())

	r = NewRange(3, 30)
	assert.Equal(t, Range{Start: 60, Finish: 90}, r)

	assert.Equal(t, NewRange(1, 5), NewRange(0, 5))
}

func TestNewRange_HugePage(t *testing.T) {
	for _, raw := range []string{"9223372036854775807", "307445734561825861", "71582789"} {
		r := NewRange(ParsePage(raw), 30)
		assert.Equal(t, 30, r.Limit(), raw)
		assert.Greater(t, r.Start, 0, raw)
		assert.LessOrEqual(t, r.Finish, math.MaxInt32, raw)
	}

	last := NewRange(math.MaxInt32/30, 30)
	assert.Equal(t, last, NewRange(math.MaxInt, 30))
}

func TestParseSearch(t *testing.T) {
	assert.Equal(t, "wasp fighter", ParseSearch("  wasp%20fighter "))
	assert.Equal(t, "100%", ParseSearch("100%"))
	assert.Equal(t, "", ParseSearch("   "))
}

func TestIsUUIDv4(t *testing.T) {
	assert.True(t, IsUUIDv4("4f1c2a5e-3b7d-4c8e-9f0a-1b2c3d4e5f60"))
	assert.True(t, IsUUIDv4("4F1C2A5E-3B7D-4C8E-9F0A-1B2C3D4E5F60"))
	assert.False(t, IsUUIDv4("4f1c2a5e-3b7d-1c8e-9f0a-1b2c3d4e5f60"))
	assert.False(t, IsUUIDv4("4f1c2a5e-3b7d-4c8e-7f0a-1b2c3d4e5f60"))
	assert.False(t, IsUUIDv4("torwent"))
}

func TestEncodeSEO(t *testing.T) {
	assert.Equal(t, "wasp-fighter-by-torwent", EncodeSEO("wasp fighter by torwent"))
	assert.Equal(t, "what%3F-now", EncodeSEO(" what? now "))
}
