// Package pages discovers page files in the source tree and renders each one
// into the mirrored location under the output root.
//
// Discovery follows symlinks and descends into every directory, hidden ones
// and the output root included. Processing is synchronous and all-or-nothing:
// the first read or write failure aborts the batch.
package pages
