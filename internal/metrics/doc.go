// Package metrics defines the Prometheus collectors for the media index
// engine: store query timings, sync pass counters, lifecycle sweeps and
// snapshot page serving.
package metrics
