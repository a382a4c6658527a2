// Package filelog implements the pipeline's file sink: a rolling file
// appender behind a non-blocking queue.
//
// An [Appender] writes to a file under a directory, rolling to a new file
// when the rotation period (daily, hourly, or never) changes. A
// [NonBlocking] writer decouples emitters from disk I/O: [NonBlocking.Write]
// only enqueues a copy of the bytes, and a single background goroutine
// performs the actual writes. The queue policy is drop-oldest: when the
// queue is full the oldest pending entry is discarded so emitters never
// block; discarded entries are counted and reported on [NonBlocking.Dropped].
//
// [NewNonBlocking] returns a [Guard] alongside the writer. The background
// goroutine runs until the guard is closed; closing it drains the queue,
// flushes the underlying writer, and closes it. A guard must be closed
// exactly once before process exit or buffered lines may be lost.
//
// A [Sink] renders events as plain uncolored text lines, one event per line,
// using the same "<timestamp> [<LEVEL>] <target>: <message>" layout as the
// terminal formatter's DEBUG/TRACE branch, but for every level.
package filelog
