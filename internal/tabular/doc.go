// Package tabular is a generic durable table store: named collections of
// flat string records persisted as human-readable CSV files.
//
// The encoding is lossless: values containing the field separator, a
// quote character, or a newline are quote-wrapped with embedded quotes
// doubled, so Save followed by Load reproduces the exact field values.
// Saves replace the whole file atomically (write to a temp file in the
// same directory, then rename). The store has no business knowledge;
// callers own table initialization and record schemas.
package tabular
