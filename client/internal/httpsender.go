// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

package internal

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/open-telemetry/opamp-go/protobufs"
	"go.uber.org/zap"
)

const (
	contentTypeProtobuf = "application/x-protobuf"

	// DefaultHTTPClientTimeout matches the OpAMP specification's default
	// for both connect and overall request time.
	DefaultHTTPClientTimeout = 30 * time.Second
)

// ErrUnsuccessfulResponse is wrapped with the HTTP status code and reason
// phrase when the Server's response is not 2xx. The body is not decoded in
// this case and the request is not retried.
var ErrUnsuccessfulResponse = errors.New("internal: unsuccessful response from server")

// HTTPSender encodes one AgentToServer, POSTs it, and decodes the resulting
// ServerToAgent. It holds no retry logic: a single failed send is the
// caller's problem to report and the periodic ticker provides the next
// attempt.
type HTTPSender struct {
	logger     *zap.Logger
	client     *http.Client
	url        string
	header     http.Header
	compressor Compressor
}

// NewHTTPSender builds a sender with the stdlib default transport and a
// 30s timeout, matching the OpAMP specification's default.
func NewHTTPSender(logger *zap.Logger) *HTTPSender {
	return &HTTPSender{
		logger: logger,
		client: &http.Client{
			Timeout:   DefaultHTTPClientTimeout,
			Transport: &http.Transport{},
		},
		header:     make(http.Header),
		compressor: CompressorPlain,
	}
}

// SetURL sets the OpAMP endpoint this sender POSTs to.
func (s *HTTPSender) SetURL(url string) {
	s.url = url
}

// SetRequestHeader sets an additional header sent with every request.
// Content-Type is always overridden to application/x-protobuf at send time.
func (s *HTTPSender) SetRequestHeader(key, value string) {
	s.header.Set(key, value)
}

// SetTimeout overrides the client's request timeout.
func (s *HTTPSender) SetTimeout(timeout time.Duration) {
	s.client.Timeout = timeout
}

// AddTLSConfig applies a TLS client configuration to the sender's
// transport, e.g. for mutual-TLS authentication to the Server.
func (s *HTTPSender) AddTLSConfig(cfg *tls.Config) {
	s.client.Transport = &http.Transport{TLSClientConfig: cfg}
}

// SetGzipCompression toggles gzip framing and the matching
// Content-Encoding/Accept-Encoding headers.
func (s *HTTPSender) SetGzipCompression(enabled bool) {
	if enabled {
		s.compressor = CompressorGzip
		s.header.Set("Content-Encoding", "gzip")
		s.header.Set("Accept-Encoding", "gzip")
	} else {
		s.compressor = CompressorPlain
		s.header.Del("Content-Encoding")
		s.header.Del("Accept-Encoding")
	}
}

// Send encodes msg, POSTs it to the configured URL, and decodes the
// response into a ServerToAgent. It does not retry: a non-2xx status or any
// transport/encode/decode error is returned immediately.
func (s *HTTPSender) Send(ctx context.Context, msg *protobufs.AgentToServer) (*protobufs.ServerToAgent, error) {
	body, err := EncodeMessage(s.compressor, msg)
	if err != nil {
		return nil, fmt.Errorf("internal: encode agenttoserver: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("internal: build request: %w", err)
	}
	for key, values := range s.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Content-Type", contentTypeProtobuf)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("internal: transport: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d %s", ErrUnsuccessfulResponse, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("internal: read response body: %w", err)
	}

	decoder, err := CompressorFromContentEncoding(resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, fmt.Errorf("internal: response content-encoding: %w", err)
	}

	var out protobufs.ServerToAgent
	if err := DecodeMessage(decoder, respBody, &out); err != nil {
		return nil, fmt.Errorf("internal: decode servertoagent: %w", err)
	}
	return &out, nil
}
