// Package driving declares the operations the HTTP API, the CLI and the
// file watcher call into. internal/core/services provides them.
package driving
