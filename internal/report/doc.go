// Package report builds detailed performance reports, renders them as CSV
// and optionally archives the export to S3.
//
// Rows are grouped per day, channel and campaign with ratio-of-sums derived
// metrics, matching the aggregation rules used everywhere else. The CSV
// output carries a UTF-8 BOM so spreadsheet tools open it with the right
// encoding.
package report
