// Package planner decides the processing path for a run and builds the
// stream mapping that both paths consume.
//
// Implemented:
//   - Plan, Action, Mapping (types.go)
//   - BuildPlan: path decision from the re-encode flag, first-video selection,
//     dense in-order mapping (planner.go)
package planner
