// Package logging builds slog loggers for the streampay daemon and CLI.
//
// The daemon logs as structured records to stdout and a logfile; the console
// handler renders a compact human-readable line per record while the JSON
// handler emits machine-readable events. Attr helpers keep field naming
// consistent across packages.
package logging
