// Package store owns the sharded on-disk layout of ingested items and the
// per-item manifest that records which target types were committed.
//
// Every item lives at root/a/b/c/<id> where a, b and c are the first three
// characters of the id. The item directory holds the committed media and
// sidecar files plus manifest.json. Commit moves freshly fetched files into
// place and rewrites the manifest last, so an interrupted commit leaves files
// that Cleanup or Reconcile will discard on the next run.
package store
