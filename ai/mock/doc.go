// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder,
// ai.EntityRecognizer, and ai.Provider for use in unit tests. The mocks
// allow tests to run without external AI service dependencies and enable
// controlled, deterministic behavior.
//
// # Default Behavior
//
//   - MockEmbedder: hashed bag-of-words vectors, so texts sharing words
//     are close under cosine distance
//   - MockRecognizer: capitalized words become "person" entities with
//     accurate rune offsets
//   - MockProvider: aggregates the two; swap in ai.UnavailableRecognizer
//     to exercise the degraded no-NLP mode
package mock
