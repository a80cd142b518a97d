// Package reembed rebuilds a persisted index with a different embedding model.
//
// Vectors from different models are not comparable, so a store built with
// one model cannot be queried with another. The Reembedder streams every
// stored entry, embeds its text again in batches with retry and
// exponential backoff, and writes the result as a new snapshot generation
// recorded under the new model. The old snapshot stays readable until the
// new one is committed.
package reembed
