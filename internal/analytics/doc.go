// Package analytics implements the metric aggregation engine and the
// detectors built on top of it: rolling-window anomaly detection, period
// comparison insights, and per-channel recommendations.
//
// All operations are synchronous, stateless, read-only computations over an
// injected MetricStore capability. Every derived rate is a ratio of sums,
// never an average of per-record ratios, and returns 0 when its denominator
// is 0. Results are flat value objects from the domain package.
package analytics
