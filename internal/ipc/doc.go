// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs. The
// server embeds the daemon while the client decorates calls with context
// timeouts so CLI commands fail fast when the daemon is offline. Ledger error
// kinds survive the string-only net/rpc error channel via an encode/decode
// round trip, so errors.Is works on both sides of the socket.
//
// Reuse these types when adding new RPC endpoints to keep the protocol stable
// and compatible with existing command implementations.
package ipc
