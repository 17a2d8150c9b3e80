// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP response helpers for bugdesk's API client.
//
// Response bodies are decoded according to their Content-Encoding (zstd
// and gzip are negotiated via AcceptEncoding) and bounded at
// MaxResponseSize after decompression, so a small compressed payload
// cannot expand into an unbounded allocation.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// MaxResponseSize bounds decoded JSON API response bodies: 32 MB. A full
// bug listing for a large project is a few megabytes at most.
const MaxResponseSize int64 = 32 << 20

// AcceptEncoding is the Accept-Encoding header value sent with every API
// request. Setting it explicitly disables net/http's transparent gzip
// handling, so responses must go through DecodeBody.
const AcceptEncoding = "zstd, gzip"

// DecodeBody wraps body with a decompressor for the given Content-Encoding
// header value. An empty or "identity" encoding returns body unchanged.
// The returned closer releases decoder resources; it does not close body.
func DecodeBody(contentEncoding string, body io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "", "identity":
		return io.NopCloser(body), nil
	case "gzip", "x-gzip":
		reader, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("opening gzip body: %w", err)
		}
		return reader, nil
	case "zstd":
		decoder, err := zstd.NewReader(body, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("opening zstd body: %w", err)
		}
		return decoder.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", contentEncoding)
	}
}

// ReadResponse decodes and reads a response body up to MaxResponseSize
// bytes. Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(contentEncoding string, body io.Reader) ([]byte, error) {
	decoded, err := DecodeBody(contentEncoding, body)
	if err != nil {
		return nil, err
	}
	defer decoded.Close()
	data, err := io.ReadAll(io.LimitReader(decoded, MaxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxResponseSize {
		return nil, fmt.Errorf("response body exceeds %d bytes", MaxResponseSize)
	}
	return data, nil
}

// DecodeResponse reads a response body with ReadResponse and JSON-decodes
// it into v.
func DecodeResponse(contentEncoding string, body io.Reader, v any) error {
	data, err := ReadResponse(contentEncoding, body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}
