// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const sampleBody = `{"bugs":[{"_id":"b1","title":"Login page broken"}]}`

func TestReadResponse(t *testing.T) {
	t.Run("identity body", func(t *testing.T) {
		data, err := ReadResponse("", bytes.NewReader([]byte(sampleBody)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != sampleBody {
			t.Fatalf("got %q, want %q", data, sampleBody)
		}
	})

	t.Run("gzip body", func(t *testing.T) {
		var compressed bytes.Buffer
		writer := gzip.NewWriter(&compressed)
		if _, err := writer.Write([]byte(sampleBody)); err != nil {
			t.Fatalf("gzip write: %v", err)
		}
		if err := writer.Close(); err != nil {
			t.Fatalf("gzip close: %v", err)
		}

		data, err := ReadResponse("gzip", &compressed)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != sampleBody {
			t.Fatalf("got %q, want %q", data, sampleBody)
		}
	})

	t.Run("zstd body", func(t *testing.T) {
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			t.Fatalf("zstd writer: %v", err)
		}
		compressed := encoder.EncodeAll([]byte(sampleBody), nil)
		encoder.Close()

		data, err := ReadResponse("ZSTD", bytes.NewReader(compressed))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != sampleBody {
			t.Fatalf("got %q, want %q", data, sampleBody)
		}
	})

	t.Run("unsupported encoding", func(t *testing.T) {
		if _, err := ReadResponse("br", bytes.NewReader(nil)); err == nil {
			t.Fatal("expected error for unsupported encoding")
		}
	})

	t.Run("corrupt gzip", func(t *testing.T) {
		if _, err := ReadResponse("gzip", bytes.NewReader([]byte("not gzip"))); err == nil {
			t.Fatal("expected error for corrupt gzip body")
		}
	})

	t.Run("read error propagates", func(t *testing.T) {
		if _, err := ReadResponse("", &failReader{}); err == nil {
			t.Fatal("expected error from failing reader")
		}
	})
}

func TestDecodeResponse(t *testing.T) {
	t.Run("valid JSON", func(t *testing.T) {
		var result struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		}
		body := bytes.NewReader([]byte(`{"name":"test","count":42}`))
		if err := DecodeResponse("", body, &result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Name != "test" || result.Count != 42 {
			t.Fatalf("got %+v", result)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		if err := DecodeResponse("", bytes.NewReader([]byte(`not json`)), &struct{}{}); err == nil {
			t.Fatal("expected error for invalid JSON")
		}
	})
}

// failReader always returns an error on Read.
type failReader struct{}

func (*failReader) Read([]byte) (int, error) {
	return 0, fmt.Errorf("simulated read failure")
}
