// Package services defines shared utilities consumed by the archive pipeline
// and its origin, image, and packaging stages.
//
// Key responsibilities:
//   - Context helpers that stamp run correlation IDs, stage names, and chapter
//     positions for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent CLI exit codes.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability) stays uniform across the pipeline.
package services
