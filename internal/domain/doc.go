// Package domain holds the core types shared across the ingestion and
// broadcast layers: typed record values, batches with provenance, the
// outbound update payload, and the error taxonomy. It has no dependencies
// on the transport or storage adapters.
package domain
