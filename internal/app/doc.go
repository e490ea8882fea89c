// Package app is the application layer. It is the only package that
// references multiple domain components and orchestrates all use cases:
// uploads, sample loading, simulation ingestion, summaries and shutdown.
package app
