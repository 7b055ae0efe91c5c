// Package addrscan is a measurement harness around the wallet_addresses table.
//
// Overview
//
// The package centres on KeysetPaginator, which walks every address of one
// wallet type in ascending id order, a page at a time, using the last id of
// the previous page as the exclusive lower bound of the next:
//
//	SELECT * FROM wallet_addresses
//	WHERE wallet_type = ? AND id > ?
//	ORDER BY id ASC
//	LIMIT ?
//
// The cursor is an explicit value passed in and returned by FetchPage, so a
// scan can be resumed from any persisted cursor (see CheckpointStore).
//
// Key concepts
//   - Pager: applies orderings, a cursor and a limit (with optional lookahead)
//     to a GORM query.
//   - KeysetCursor: keyset condition over one or more ordered columns,
//     serializable to an opaque token.
//   - OffsetCursor: LIMIT/OFFSET cursor, kept as the baseline the keyset scan
//     is measured against.
//   - RawKeysetPaginator: the same keyset scan issued as hand-written SQL.
//   - BulkLoader and BulkUpdater: the seed and update sides of the harness.
//
// Correctness of a keyset scan relies on id being unique and totally ordered
// under the database's string comparison, and on no writer interleaving rows
// with the ongoing scan.
package addrscan
