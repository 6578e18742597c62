// Package api exposes the user directory over HTTP.
//
// Routes:
//
//	GET  /api/users?page=N                  one page of users
//	GET  /api/users/by-letter?letter=L&page=N  one page filtered by first letter
//	POST /api/users                         create a user from {"name": "..."}
//	GET  /health                            liveness
//	GET  /ready                             storage (and cache) reachability
//
// List responses are always {"users": [...]}. Validation failures are 400
// with {"error": "..."}; storage failures are a plain-text 500.
package api
