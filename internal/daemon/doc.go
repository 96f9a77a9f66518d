// Package daemon coordinates the long-running streampay process.
//
// It wires configuration, the ledger store, and the HTTP API server into a
// single lifecycle with flock-based locking to prevent multiple instances
// writing the same ledger database. The daemon exposes the stream operations
// consumed by the IPC layer and reports runtime status.
//
// Keep orchestration logic here: ledger semantics live in the ledger package
// while the daemon focuses on startup, shutdown, and high level coordination.
package daemon
