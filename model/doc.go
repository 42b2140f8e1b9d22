// Package model defines core types used throughout sqlgo.
//
// # Corpus Types
//
//   - Example: a stored natural-language/SQL pair with pattern metadata
//     and feedback-driven quality fields
//   - PatternTag: query-type classification of an example (category,
//     complexity, referenced tables, operation tags, keywords)
//   - RankedExample: an Example plus the similarity, relevance and final
//     scores computed for one selection call
//
// # Schema Types
//
//   - SchemaDescription: tables, columns and relationships of the target
//     database, as supplied by an external collaborator
//   - TableSchema, ColumnInfo, ForeignKey, Relationship
//
// # Generation Types
//
//   - GenerationContext: one generation request (query, schema, category,
//     dialect, retry state)
//   - ModelDescriptor: a configured generation backend
//   - ModelResponse: raw backend output (SQL, explanation, confidence)
//   - ValidationResult: external validator verdict for a generated statement
//   - GenerationResult: validated single-backend outcome
//   - EnsembleResult: multi-backend outcome with consensus scoring
//   - PerformanceSample: one observed generation attempt, ring-buffered by
//     the registry and optionally journaled
package model
