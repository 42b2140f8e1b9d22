// Package sqlgo provides an embedded natural-language-to-SQL engine core for Go.
//
// Sqlgo is an embeddable engine designed for production NL-to-SQL pipelines.
// It combines lexical example retrieval with accuracy-tracked model routing,
// so prompts get the best few-shot examples and queries get the best backend.
//
// # Quick Start
//
// Static mode:
//
//	ctx := context.Background()
//	eng, _ := sqlgo.Open(ctx, sqlgo.Static(examples))
//
// Local mode:
//
//	eng, _ := sqlgo.Open(ctx, sqlgo.Local("./data"))  // reads examples.json
//
// Cloud mode:
//
//	s3Store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("corpora/"))
//	eng, _ := sqlgo.Open(ctx, sqlgo.Remote(s3Store))
//	eng, _ := sqlgo.Open(ctx, sqlgo.Remote(s3Store), sqlgo.WithCorpusKey("retail.json.zst"))
//
// # Example Selection
//
// Selection ranks corpus examples against a user query and schema:
//
//	results, _ := eng.SelectExamples(ctx, "how many customers do we have", schema, 5)
//	for _, r := range results {
//	    fmt.Println(r.Example.ID, r.FinalScore, r.SimilarityScore)
//	}
//
// Or use the fluent builder:
//
//	results, _ := eng.Select("monthly revenue trend").
//	    Schema(schema).
//	    Max(3).
//	    MinSimilarity(0.2).
//	    Execute(ctx)
//
// # Generation
//
// With models, an invoker and a validator configured, the engine routes
// generation through a fallback chain that retries on a different backend
// after each failure:
//
//	eng, _ := sqlgo.Open(ctx, sqlgo.Static(examples),
//	    sqlgo.WithModels(descriptors...),
//	    sqlgo.WithInvoker(invoker),
//	    sqlgo.WithValidator(validator),
//	)
//	result, _ := eng.Generate(ctx, gc)       // single backend + fallback
//	ens, _ := eng.GenerateEnsemble(ctx, gc)  // top backends in parallel
//
// # Feedback Loops
//
// Selection and routing improve as outcomes are reported back:
//
//	eng.UpdateQuality(ctx, exampleID, true)      // example worked
//	eng.RecordSatisfaction(ctx, result.ID, 92)   // user was happy (0-100)
//
// # Key Features
//
//   - Inverted keyword, pattern, and table indexes over the example corpus
//   - Weighted lexical ranking (keywords, patterns, tables, quality, success)
//   - Accuracy-tracked model registry with category specialization bonuses
//   - Fallback orchestration with per-attempt backend exclusion
//   - Parallel ensemble generation with consensus scoring
//   - Cloud-native corpora (S3/MinIO via BlobStore, zstd/lz4 transparent)
//   - Declarative model config (YAML/JSON/TOML) or fluent builder
package sqlgo
