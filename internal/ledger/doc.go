// Package ledger implements the authoritative stream ledger: continuous
// per-second payment streams funded by an upfront deposit, with the spendable
// balance decaying linearly until the stream is closed or depletes.
//
// The ledger executes createStream and closeStream as single atomic state
// transitions against SQLite, assigns gapless monotonically increasing stream
// ids, and settles balances before any mutation that depends on them. Project
// is the pure balance projector: it maps stored stream state plus a timestamp
// to the current spendable balance without touching storage, so any number of
// independent observers can watch a stream drain without ledger writes.
package ledger
