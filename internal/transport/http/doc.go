// Package http contains the HTTP handlers for the CivicPulse API.
//
// Handlers are thin: they decode and validate requests, call into the
// services layer, and render JSON responses with chi/render. Failures
// are rendered as RFC 7807 problem details through the shared error
// handler. Each handler exposes a Routes() method returning a chi
// sub-router that the application mounts under /api.
package http
