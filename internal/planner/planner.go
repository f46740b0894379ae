package planner

import (
	"github.com/backmassage/muxconv/internal/media"
)

// BuildPlan produces the stream mapping and path decision for one run.
//
// Flow:
//  1. Choose the first video stream (if any)
//  2. Decide the action from the re-encode flag
//  3. Map every stream densely in input order
//
// Re-encoding without a video stream fails with ErrNoVideoStream.
func BuildPlan(streams []media.StreamDescriptor, reencode bool) (*Plan, error) {
	plan := &Plan{
		Action:     ActionRemux,
		VideoIndex: firstVideo(streams),
	}

	if reencode {
		if plan.VideoIndex < 0 {
			return nil, ErrNoVideoStream
		}
		plan.Action = ActionTranscode
		plan.RegenerateVideo = true
	}

	plan.Mapping = buildMapping(streams)
	return plan, nil
}

// buildMapping sizes the map by the highest input index so lookups by a
// packet's stream index never fall out of range for known streams.
func buildMapping(streams []media.StreamDescriptor) Mapping {
	size := 0
	for _, s := range streams {
		if s.Index+1 > size {
			size = s.Index + 1
		}
	}
	m := make(Mapping, size)
	for i := range m {
		m[i] = Unmapped
	}

	next := 0
	for i := range m {
		if !present(streams, i) {
			continue
		}
		m[i] = next
		next++
	}
	return m
}

func present(streams []media.StreamDescriptor, idx int) bool {
	for _, s := range streams {
		if s.Index == idx {
			return true
		}
	}
	return false
}

func firstVideo(streams []media.StreamDescriptor) int {
	return media.Catalog{Streams: streams}.FirstVideo()
}
