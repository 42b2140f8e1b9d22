// Package testutil provides testing utilities for sqlgo.
//
// This package is intended for use in tests and benchmarks only.
// It provides a fixed retail schema and example corpus, canned backend
// descriptors, and scripted invoker/validator collaborators.
//
// # Fixtures
//
//	schema := testutil.Schema()       // customers/orders/products/order_items
//	examples := testutil.Corpus()     // five stable NL/SQL pairs
//	backends := testutil.Descriptors() // sql-pro, general-fast, insight-analytics
//
// # Scripted Collaborators
//
//	invoker := &testutil.ScriptedInvoker{
//		Responses: map[string]model.ModelResponse{
//			"sql-pro": {SQL: "SELECT COUNT(*) FROM customers", Confidence: 0.9},
//		},
//	}
//	validator := &testutil.ScriptedValidator{}
//
// # Synthetic Corpora
//
//	rng := testutil.NewRNG(seed)
//	examples := testutil.GenerateCorpus(rng, 10000)
package testutil
