// Package services defines shared utilities consumed by the ingestion engine
// and its external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, content IDs, and target types for
//     logging.
//   - Structured error markers plus the Wrap helper so callers can tell
//     external tool failures apart from validation and configuration errors.
//
// Subpackages wrap individual external tools (see services/ytdlp).
package services
