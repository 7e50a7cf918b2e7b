// Package heartbeat serves the polling payload, dashboard rows, and Prometheus metrics over HTTP.
package heartbeat
