// Package server provides the HTTP surface: account reads guarded by
// the authorization pipeline, health, and metrics endpoints.
//
// Every denied request is answered with a plain 404, whatever the
// internal reason. A caller cannot tell a resource that does not exist
// from one they may not see.
package server
