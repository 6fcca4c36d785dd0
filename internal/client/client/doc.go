// Package client talks to the job platform backend.
//
// # Overview
//
//  1. HTTPClient.Do is the authenticated request wrapper: it injects
//     "Authorization: Bearer <token>" from a CredentialStore and, on a 401,
//     performs at most one token refresh followed by one retry. Concurrent
//     401s share a single in-flight refresh. A rejected refresh clears the
//     session and yields ErrSessionInvalidated.
//  2. The typed API (see Client) maps the backend endpoints onto Do.
//  3. InitDatabase / RunMigrations bootstrap the SQLite session storage.
//
// # Error Handling
//
// Failures reach callers as *Error (message + status code). Match the
// category with errors.Is: ErrUnauthorized, ErrUnavailable,
// ErrSessionInvalidated. Nothing is retried except the single post-refresh
// retry.
package client
