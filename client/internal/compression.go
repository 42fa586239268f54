// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

package internal

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/proto"
)

// Compressor identifies how an AgentToServer/ServerToAgent body is framed on
// the wire.
type Compressor int

const (
	// CompressorPlain sends raw Protobuf bytes. It is the default.
	CompressorPlain Compressor = iota
	// CompressorGzip wraps the Protobuf bytes in a single gzip member.
	CompressorGzip
)

// ErrUnsupportedEncoding is wrapped with the offending Content-Encoding value
// when CompressorFromContentEncoding sees something other than "gzip" or an
// absent header.
var ErrUnsupportedEncoding = errors.New("internal: unsupported content-encoding")

// CompressorFromContentEncoding maps an HTTP Content-Encoding header value to
// a Compressor. An empty header means Plain; any value other than "gzip" is
// rejected since the client cannot guess how to frame it.
func CompressorFromContentEncoding(encoding string) (Compressor, error) {
	switch encoding {
	case "":
		return CompressorPlain, nil
	case "gzip":
		return CompressorGzip, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, encoding)
	}
}

// ContentEncoding returns the HTTP Content-Encoding header value for c, or
// "" for CompressorPlain.
func (c Compressor) ContentEncoding() string {
	if c == CompressorGzip {
		return "gzip"
	}
	return ""
}

// EncodeMessage serializes msg to Protobuf and, for CompressorGzip, wraps the
// result in a single gzip member.
func EncodeMessage(c Compressor, msg proto.Message) ([]byte, error) {
	raw, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("internal: marshal message: %w", err)
	}

	if c == CompressorPlain {
		return raw, nil
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return nil, fmt.Errorf("internal: gzip write: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("internal: gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeMessage is the inverse of EncodeMessage: it un-gzips if necessary,
// then unmarshals into msg.
func DecodeMessage(c Compressor, data []byte, msg proto.Message) error {
	raw := data
	if c == CompressorGzip {
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("internal: gzip open: %w", err)
		}
		defer gz.Close()
		decompressed, err := io.ReadAll(gz)
		if err != nil {
			return fmt.Errorf("internal: gzip read: %w", err)
		}
		raw = decompressed
	}

	if err := proto.Unmarshal(raw, msg); err != nil {
		return fmt.Errorf("internal: unmarshal message: %w", err)
	}
	return nil
}
