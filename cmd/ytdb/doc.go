// Package main hosts the ytdb CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging and the internal
// packages together: download resolves ids and drives the ingest
// orchestrator, sanity_check audits a store, history reads the attempt
// journal, deps reports external tool status and config scaffolds TOML files.
//
// Keep this package lean: behaviour belongs in internal packages, commands
// only translate flags into options and render results.
package main
