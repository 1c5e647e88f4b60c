// Package runlog persists a ledger of batch runs in SQLite.
//
// Each `autosub run` invocation records one run row and one row per input
// video with its terminal state, the outputs it produced, and any
// degradations. The ledger backs `autosub history`; the pipeline never
// reads it to make decisions.
//
// The database lives at <state_dir>/runs.db in WAL mode. Writes retry on
// SQLITE_BUSY with exponential backoff so concurrent `history` reads do not
// fail a run. A schema version mismatch is reported as ErrSchemaMismatch;
// deleting the file resets the ledger.
package runlog
