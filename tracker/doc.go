// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tracker is the HTTP client for the bug-tracker JSON API.
//
// [Client] is unauthenticated. It performs the credential exchanges
// (Login, Register) and the token-scoped account calls (Me,
// UpdateProfile, ChangePassword) where the caller supplies the token
// explicitly. [Session] wraps a Client with a [TokenSource] and serves
// the bug and project endpoints; it reads the bearer token fresh on every
// call, so a logout or re-login takes effect on the next request without
// rebuilding anything.
//
// Every failure is one of three kinds (see [Kind]): a transport failure
// ([*TransportError]: unreachable server, timeout, malformed body), a
// rejected request ([*APIError]: non-2xx with the server's reason), or an
// invalid local state ([*StateError], for example calling an
// authenticated endpoint with no session). Callers that present errors to
// a user wrap them with [Fail], which attaches the operation name and a
// display reason, and branch on [KindOf].
//
// Responses may be zstd or gzip encoded; decoding and the response size
// bound live in lib/netutil.
package tracker
