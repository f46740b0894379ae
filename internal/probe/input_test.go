package probe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/muxconv/internal/ffmpeg"
	"github.com/backmassage/muxconv/internal/media"
	"github.com/backmassage/muxconv/internal/testutil"
)

func TestProbe_VideoAudio(t *testing.T) {
	path := testutil.Write(t, t.TempDir(), testutil.Fixture{
		Name: "av.mkv", Muxer: "matroska", Video: true, Audio: true, Frames: 50,
	})

	cat, err := Probe(path)
	require.NoError(t, err)

	require.Len(t, cat.Streams, 2)
	assert.Equal(t, media.KindVideo, cat.Streams[0].Kind)
	assert.Equal(t, media.KindAudio, cat.Streams[1].Kind)
	assert.Equal(t, 0, cat.Streams[0].Index)
	assert.Equal(t, 1, cat.Streams[1].Index)
	assert.Equal(t, 64, cat.Streams[0].Width)
	assert.Equal(t, 48, cat.Streams[0].Height)
	assert.True(t, cat.Streams[0].TimeBase.Valid())
	assert.True(t, cat.DurationKnown(), "duration = %d", cat.Duration)
	assert.Equal(t, 0, cat.FirstVideo())
	assert.Equal(t, path, cat.Path)
	assert.NotEmpty(t, cat.Format)
}

func TestProbe_AudioOnly(t *testing.T) {
	path := testutil.Write(t, t.TempDir(), testutil.Fixture{
		Name: "a.mkv", Muxer: "matroska", Audio: true, Frames: 10,
	})

	cat, err := Probe(path)
	require.NoError(t, err)
	require.Len(t, cat.Streams, 1)
	assert.Equal(t, media.KindAudio, cat.Streams[0].Kind)
	assert.Equal(t, -1, cat.FirstVideo())
}

func TestProbe_OpenInputFailure(t *testing.T) {
	dir := t.TempDir()

	_, err := Probe(filepath.Join(dir, "missing.mp4"))
	assert.ErrorIs(t, err, ffmpeg.ErrOpenInput)

	junk := filepath.Join(dir, "junk.bin")
	require.NoError(t, os.WriteFile(junk, []byte("this is not a media container at all"), 0o644))
	_, err = Probe(junk)
	assert.ErrorIs(t, err, ffmpeg.ErrOpenInput)
}
