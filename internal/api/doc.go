// Package api serves the synchronous single-title pipeline over HTTP.
//
// POST /api/v1/process takes {"title": "..."} and returns the full
// pipeline result once the run completes; there is no queueing or
// async job tracking. GET /healthz reports credential readiness for
// the external services so operators can probe a deployment before
// pointing a batch at it. Every request carries an X-Request-ID,
// generated when the caller does not supply one.
package api
