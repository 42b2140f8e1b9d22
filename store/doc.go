// Package store implements the in-memory example store.
//
// The store holds the corpus of natural-language/SQL examples behind two
// inverted indexes kept as Roaring Bitmaps over dense internal ids:
//
//   - keyword index: token -> example ids (tokens from the example's
//     natural-language text plus its curated pattern keywords)
//   - pattern index: "{category}_{complexity}" and "table_{name}" keys ->
//     example ids
//
// The corpus is built once at startup, either directly via Add or through
// Load, which reads a blob (optionally zstd- or lz4-compressed), decodes it
// record by record, and quarantines malformed records instead of defaulting
// their fields.
//
// Examples are never removed at runtime. The only mutation is ApplyFeedback,
// which updates one example's usage count, success-rate EMA and bounded
// quality drift under the store's write lock.
package store
