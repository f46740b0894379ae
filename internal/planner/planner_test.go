package planner

import (
	"errors"
	"testing"

	"github.com/backmassage/muxconv/internal/media"
)

// --- Helper builders ---

func streams(kinds ...media.Kind) []media.StreamDescriptor {
	out := make([]media.StreamDescriptor, len(kinds))
	for i, k := range kinds {
		out[i] = media.StreamDescriptor{Index: i, Kind: k, TimeBase: media.Rational{Num: 1, Den: 1000}}
	}
	return out
}

func TestBuildPlan_Remux(t *testing.T) {
	plan, err := BuildPlan(streams(media.KindVideo, media.KindAudio, media.KindOther), false)
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}
	if plan.Action != ActionRemux {
		t.Errorf("Action = %v, want remux", plan.Action)
	}
	if plan.RegenerateVideo {
		t.Error("RegenerateVideo = true for remux")
	}
	if plan.VideoIndex != 0 {
		t.Errorf("VideoIndex = %d, want 0", plan.VideoIndex)
	}
	want := Mapping{0, 1, 2}
	for i := range want {
		if plan.Mapping[i] != want[i] {
			t.Errorf("Mapping[%d] = %d, want %d", i, plan.Mapping[i], want[i])
		}
	}
}

func TestBuildPlan_Transcode(t *testing.T) {
	plan, err := BuildPlan(streams(media.KindAudio, media.KindVideo, media.KindVideo), true)
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}
	if plan.Action != ActionTranscode {
		t.Errorf("Action = %v, want transcode", plan.Action)
	}
	if plan.VideoIndex != 1 {
		t.Errorf("VideoIndex = %d, want first video stream 1", plan.VideoIndex)
	}
	if !plan.Regenerated(1) || plan.Regenerated(2) || plan.Regenerated(0) {
		t.Error("only the chosen video stream should be regenerated")
	}
	if plan.Mapping.Mapped() != 3 {
		t.Errorf("Mapped() = %d, want every stream mapped", plan.Mapping.Mapped())
	}
}

func TestBuildPlan_NoVideoStream(t *testing.T) {
	tests := []struct {
		name     string
		kinds    []media.Kind
		reencode bool
		wantErr  bool
	}{
		{"audio only remux", []media.Kind{media.KindAudio}, false, false},
		{"audio only reencode", []media.Kind{media.KindAudio}, true, true},
		{"empty reencode", nil, true, true},
		{"empty remux", nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := BuildPlan(streams(tt.kinds...), tt.reencode)
			if tt.wantErr {
				if !errors.Is(err, ErrNoVideoStream) {
					t.Fatalf("error = %v, want ErrNoVideoStream", err)
				}
				if plan != nil {
					t.Error("plan should be nil on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if plan.VideoIndex != -1 {
				t.Errorf("VideoIndex = %d, want -1", plan.VideoIndex)
			}
		})
	}
}

// Mapped output indices must be dense and strictly increasing with input index.
func TestBuildPlan_MappingPreservesOrder(t *testing.T) {
	inputs := [][]media.StreamDescriptor{
		streams(media.KindVideo),
		streams(media.KindAudio, media.KindAudio, media.KindVideo, media.KindOther),
		{{Index: 0, Kind: media.KindVideo}, {Index: 2, Kind: media.KindAudio}, {Index: 5, Kind: media.KindAudio}},
	}
	for _, in := range inputs {
		for _, reencode := range []bool{false, true} {
			plan, err := BuildPlan(in, reencode)
			if err != nil {
				t.Fatalf("BuildPlan() error = %v", err)
			}
			prev := -1
			for i, out := range plan.Mapping {
				if out == Unmapped {
					continue
				}
				if out != prev+1 {
					t.Errorf("input %d -> output %d, want dense %d", i, out, prev+1)
				}
				prev = out
			}
			if plan.Mapping.Mapped() != len(in) {
				t.Errorf("Mapped() = %d, want %d", plan.Mapping.Mapped(), len(in))
			}
		}
	}
}

func TestMappingOutput(t *testing.T) {
	m := Mapping{0, Unmapped, 1}
	tests := []struct {
		in     int
		want   int
		wantOK bool
	}{
		{0, 0, true},
		{1, 0, false},
		{2, 1, true},
		{3, 0, false},
		{-1, 0, false},
	}
	for _, tt := range tests {
		got, ok := m.Output(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Output(%d) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestBuildPlan_SparseIndices(t *testing.T) {
	plan, err := BuildPlan([]media.StreamDescriptor{{Index: 0, Kind: media.KindVideo}, {Index: 2, Kind: media.KindAudio}}, false)
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}
	if len(plan.Mapping) != 3 {
		t.Fatalf("len(Mapping) = %d, want 3", len(plan.Mapping))
	}
	if plan.Mapping[1] != Unmapped {
		t.Errorf("Mapping[1] = %d, want Unmapped", plan.Mapping[1])
	}
	if plan.Mapping[2] != 1 {
		t.Errorf("Mapping[2] = %d, want 1", plan.Mapping[2])
	}
}
