// Package ingestion turns source files into a persisted vector index.
//
// The Builder owns the two indexing policies:
//   - ModeInitial loads every document in the document folder, chunks it
//     with the bulk preset and replaces whatever index existed before
//   - ModeIncremental chunks only the supplied documents with the ad-hoc
//     preset and appends them, skipping passages already indexed
//
// Every mutation is persisted before BuildOrUpdate returns. Initialize
// loads the persisted index when one exists and builds it otherwise.
//
// Documents come from a Loader. DirectoryLoader reads PDF files one page
// per document and plain text or markdown files whole. A Watcher follows
// the document folder and hands new or changed files to a callback so they
// can be ingested incrementally.
package ingestion
