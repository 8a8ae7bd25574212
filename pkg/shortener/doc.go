// Package shortener ties the id space, the forward and reverse indexes and
// the code codec together into Shorten and Resolve.
//
// Shorten is idempotent: the same normalized url always yields the same code
// for the life of the process, including when many goroutines shorten it at
// once. When two callers race on a url they have never seen, both allocate an
// id and write it to the forward index, but only the first to reach the
// reverse index wins. The loser's forward entry stays behind as an orphan;
// it still holds the url but no issued code points at it.
//
// Resolve never fails. Malformed codes, codes that were never issued and
// codes above the forward index watermark all come back as not found.
//
// Nothing is persisted. All state is lost when the process exits.
package shortener
