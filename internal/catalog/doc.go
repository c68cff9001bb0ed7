// Package catalog implements the client for the anime catalog search
// API, with direct and proxied transport modes selected at startup.
package catalog
