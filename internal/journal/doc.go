// Package journal keeps a SQLite history of download attempts.
//
// Each processed id produces one row tagged with the run id, so operators can
// see when an item was tried, what happened and why. The journal is advisory:
// the manifest and failure ledger remain the source of truth for what is
// fetched and skipped.
package journal
