// Package pipeline runs one conversion at a time: it owns the run state
// machine, the worker goroutine, the bounded message stream and
// cooperative cancellation, and drives the remux and re-encode paths over
// the probe, planner and ffmpeg packages.
//
// Types:
//   - Controller (NewController, Start, Running, Status)
//   - Run (Messages, Cancel, Done, Wait, ID, Output)
//   - Result, Stats, State, Message
//
// Files:
//   - controller.go: Start/Status, worker lifecycle, finalization
//   - conversion.go: shared open/mux/progress plumbing
//   - remux.go: stream-copy path
//   - transcode.go: decode, scale, encode path
//   - state.go, messages.go, stats.go
package pipeline
