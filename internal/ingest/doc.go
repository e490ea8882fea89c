// Package ingest normalizes heterogeneous uploaded or generated payloads
// into uniform typed records. It handles the two supported tabular
// encodings (delimited text and structured JSON), the character encoding
// fallback ladder, column-level type inference, and synthetic record
// generation for the sample loader and the simulation producer.
package ingest
