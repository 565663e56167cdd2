// Package tasks runs library-wide jobs over a user's song collection with progress reporting.
//
// # Bulk Export
//
// [LibraryEngine.BulkExport] loads the owner's collection once, then fans the selected songs out to a
// worker pool. Each worker renders one song with the formatter package and writes it to the output
// directory. Dispatch is paced by a token-bucket limiter so large libraries do not saturate the disk.
//
// Failures are per song: a missing identifier or a failed write is recorded in the result and the
// run continues. When the run finishes an export_manifest.json summarizing every song is written.
//
// # Progress Reporting
//
// Operations take an optional send-only [ProgressUpdate] channel. Updates use select with default so a
// slow reader never stalls the export.
package tasks
