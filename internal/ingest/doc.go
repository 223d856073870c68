// Package ingest drives a batch download run.
//
// The Orchestrator walks a deduplicated id list strictly in order. For each id
// it rejects ids too short to fetch, consults the failure ledger and the item
// manifest, discards leftovers of interrupted runs, fetches into an isolated
// temporary directory and commits the result into the sharded store. Tool
// failures are classified and recorded in the ledger; they never stop the
// run. Cancellation and unexpected fetcher errors stop the run after the item
// directory has been cleaned up.
//
// Every outcome can be mirrored to a Recorder such as the attempt journal.
package ingest
