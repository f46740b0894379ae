package ffmpeg

import (
	"testing"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseFrameRate(t *testing.T) {
	fallback := astiav.NewRational(25, 1)
	tests := []struct {
		name           string
		guess, nominal astiav.Rational
		want           astiav.Rational
	}{
		{"guess", astiav.NewRational(30000, 1001), astiav.NewRational(30, 1), astiav.NewRational(30000, 1001)},
		{"nominal", astiav.NewRational(0, 1), astiav.NewRational(24, 1), astiav.NewRational(24, 1)},
		{"fallback", astiav.NewRational(0, 0), astiav.NewRational(0, 1), fallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChooseFrameRate(tt.guess, tt.nominal, fallback)
			assert.Equal(t, tt.want.Num(), got.Num())
			assert.Equal(t, tt.want.Den(), got.Den())
		})
	}
}

func TestNewScaler(t *testing.T) {
	c := astikit.NewCloser()
	defer c.Close()

	s, err := NewScaler(c, 64, 48, TargetPixelFormat)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestNewScaler_BufferFailureIsEncodeError(t *testing.T) {
	c := astikit.NewCloser()
	defer c.Close()

	_, err := NewScaler(c, 0, 0, TargetPixelFormat)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEncode)
	assert.Equal(t, "encode", Kind(err))
}
