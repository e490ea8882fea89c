// Package stream holds the process-wide bounded record buffer and the
// synthetic producer that feeds it alongside real uploads.
package stream
