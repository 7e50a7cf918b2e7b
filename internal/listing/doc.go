// Package listing renders tracked repositories as rows for the list command and the dashboard endpoint.
package listing
