// Package assistant answers a small closed set of natural-language metric
// questions.
//
// Routing is a fixed, ordered list of case-insensitive substring intents
// evaluated top to bottom; the first match wins. Each intent reuses the
// analytics aggregator with its own fixed lookback window and formats one
// English sentence from the computed numbers. There is no learned model and
// no external call; extending the assistant means appending a new
// pattern-to-query mapping to the table.
package assistant
