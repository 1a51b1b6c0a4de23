// Package httpapi exposes the chat backend over HTTP using Fiber.
//
// All routes under /api except /api/health require the X-API-Key header
// and are rate limited per client IP. Errors are returned as
// {"error": true, "message": ..., "code": ...}.
package httpapi
