// Package naming derives the output file path for a conversion run.
//
// Implemented:
//   - OutputPath(input, token): <dir>/<stem>_converted.<token> (outputpath.go)
//   - Stem: base name without its final extension (outputpath.go)
package naming
