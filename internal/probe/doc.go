// Package probe is the stream catalog reader: it opens an input container
// through libav, probes stream parameters, and exposes the ordered stream
// table plus total duration as a media.Catalog.
//
// Implemented:
//   - Open(closer, path) → *Input (input.go)
//   - (*Input).Catalog, Stream, ReadPacket, GuessFrameRate (input.go)
//   - Probe(path) → media.Catalog for one-shot inspection (input.go)
package probe
