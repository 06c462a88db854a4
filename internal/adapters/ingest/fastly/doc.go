// Package fastly handles reading Fastly access-log gzip objects line by line
//
// Design choices:
// - The upstream log formatter was misconfigured with a trailing comma before
//   the closing brace of each JSON object. RepairReader rewrites exactly that
//   defect on the fly; it is not a general JSON repairer.
// - Stream with a json.Decoder over gzip -> repair so objects never need to be
//   fully buffered twice.
// - Field decoding tolerates historical drift: numbers as strings, booleans as
//   "0"/"1" or 0/1, and three request-start timestamp encodings.
// - One malformed record fails the whole object. Partial ingest of an object
//   would break the delete-on-success lifecycle.
package fastly
