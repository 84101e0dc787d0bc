// Package api is the transport boundary between the QuickQR client stores
// and the QR backend.
//
// # Overview
//
//  1. Backend is the transport-agnostic contract the stores depend on:
//     Login, Register, Me, History, Generate and Delete.
//  2. RESTClient implements Backend over HTTP with go-resty. It attaches the
//     session credential as a bearer token, tags each request with an
//     X-Request-ID and maps HTTP outcomes to sentinel errors.
//
// # Payload shapes
//
// History and Generate return decoded but unnormalized JSON objects
// (RawRecord). The backend is inconsistent about field naming and envelope
// wrapping, so canonicalization happens in the records package at the point
// where data enters the store. Numbers are decoded as json.Number so that
// numeric ids survive without float formatting.
//
// # Error Handling
//
// Failures are reported as sentinel errors matched with errors.Is:
// ErrNetwork, ErrAuthRejected, ErrInvalidCredentials, ErrValidation,
// ErrConflict (ErrUsernameTaken, ErrEmailTaken), ErrNotFound, ErrInternal.
// Errors produced from an HTTP response are *HTTPError values carrying the
// status code and server message.
package api
