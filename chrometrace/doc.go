// Package chrometrace writes Chrome Trace Event Format JSON files consumable
// by generic trace-timeline viewers (chrome://tracing, Perfetto, Speedscope).
//
// A [Writer] streams a JSON array of trace entries to a file. Spans are
// recorded in asynchronous style ("b"/"e" phase pairs matched by category,
// name, and ID) so strict call/return nesting is not assumed across
// goroutines. Log events become instant entries ("i" phase). Source
// locations are always captured into entry args; span fields are captured
// only when the writer was built with [WithArgs].
//
// The Writer is also its own guard: [Writer.Close] writes the array
// terminator, flushes buffered entries, and closes the file. A file closed
// mid-trace is still readable by viewers that tolerate an unterminated
// array, but Close should always run before process exit.
package chrometrace
