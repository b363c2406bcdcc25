// Package requestid propagates a request id through HTTP requests, job runs
// and log records.
//
// Middleware reads or generates X-Request-ID; Ensure gives scheduled runs an
// id of their own; LoggerExtractor plugs into logger.WithContextExtractors.
package requestid
