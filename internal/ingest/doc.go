// Package ingest pulls daily performance metrics from advertising provider
// APIs and writes them to storage.
//
// Each provider is a Connector; the Syncer fans a sync window out to every
// configured connector and persists the returned batches additively, so
// re-syncing an already ingested day accumulates instead of overwriting.
// Rows that fail basic validation are dropped and logged, never stored.
package ingest
