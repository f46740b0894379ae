// Package ffmpeg wraps the libav objects a conversion run needs: the muxing
// writer, decoder, pixel converter, encoder, timestamp rescaling, and the
// bridge from libav's own log into the application logger.
//
// Every native resource is registered on the caller's astikit.Closer the
// moment it is acquired, so one Close releases whatever a run managed to set
// up, in reverse order, no matter where setup or the main loop stopped.
//
// Implemented:
//   - Error taxonomy sentinels and Kind classification (errors.go)
//   - MuxerName, Muxer: output container, header/trailer lifecycle,
//     single interleaved write entry point (muxer.go)
//   - Decoder, Encoder, Scaler, ChooseFrameRate (codec.go)
//   - RescalePacket, RescaleTs, rational conversions (rescale.go)
//   - RouteLogs: libav log callback into logging.Logger (logbridge.go)
package ffmpeg
