// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and response helpers.

# Request Logging

	mux.HandleFunc("POST /elections", middleware.WithLogging(handler))

Logs request start and completion with the response status and duration_ms.
The wrapper unwraps to the underlying writer, so streaming handlers can
still flush.

# JSON and NDJSON

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusForbidden, "results are hidden")

NewNDJSONStream starts an application/x-ndjson response; each Send writes
one line and flushes it. The count endpoint streams election events this way.

# CORS

	server := http.Server{Handler: middleware.CORS(mux)}

Reflects the request origin and allows the X-Admin-Key and X-Voter-Token
headers.

# Client IP

GetClientIP honours X-Forwarded-For, then X-Real-IP, then RemoteAddr. The
result is only ever stored hashed.
*/
package middleware
