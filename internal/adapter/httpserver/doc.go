// Package httpserver serves the GitHub webhook endpoint, a read-only API over
// cached proposals and stored tallies, health probes and Prometheus metrics.
package httpserver
