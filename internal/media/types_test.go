package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogFirstVideo(t *testing.T) {
	tests := []struct {
		name    string
		streams []StreamDescriptor
		want    int
	}{
		{"empty", nil, -1},
		{"audio only", []StreamDescriptor{{Index: 0, Kind: KindAudio}}, -1},
		{"video first", []StreamDescriptor{{Index: 0, Kind: KindVideo}, {Index: 1, Kind: KindAudio}}, 0},
		{"video after audio", []StreamDescriptor{{Index: 0, Kind: KindAudio}, {Index: 1, Kind: KindVideo}, {Index: 2, Kind: KindVideo}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Catalog{Streams: tt.streams}.FirstVideo())
		})
	}
}

func TestCatalogDurationKnown(t *testing.T) {
	assert.False(t, Catalog{Duration: DurationUnknown}.DurationKnown())
	assert.False(t, Catalog{Duration: 0}.DurationKnown())
	assert.True(t, Catalog{Duration: 1}.DurationKnown())
}

func TestCatalogCount(t *testing.T) {
	c := Catalog{Streams: []StreamDescriptor{
		{Index: 0, Kind: KindVideo},
		{Index: 1, Kind: KindAudio},
		{Index: 2, Kind: KindAudio},
		{Index: 3, Kind: KindOther},
	}}
	assert.Equal(t, 1, c.Count(KindVideo))
	assert.Equal(t, 2, c.Count(KindAudio))
	assert.Equal(t, 1, c.Count(KindOther))
	assert.Zero(t, Catalog{}.Count(KindVideo))
}

func TestRational(t *testing.T) {
	r := Rational{Num: 1, Den: 25}
	assert.True(t, r.Valid())
	assert.InDelta(t, 0.04, r.Float(), 1e-9)
	assert.Equal(t, "1/25", r.String())
	assert.False(t, Rational{}.Valid())
	assert.Zero(t, Rational{Num: 1}.Float())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "video", KindVideo.String())
	assert.Equal(t, "audio", KindAudio.String())
	assert.Equal(t, "other", KindOther.String())
}
