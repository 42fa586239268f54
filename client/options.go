// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

package client

import (
	"crypto/tls"
	"time"

	"go.uber.org/zap"

	"github.com/amazon-contributing/opamp-agent-client-go/client/internal"
	"github.com/amazon-contributing/opamp-agent-client-go/client/types"
)

// HTTPClientConfig is the resolved transport configuration for a client,
// built up from the functional Option values passed to New.
type HTTPClientConfig struct {
	url             string
	headers         map[string]string
	gzipCompression bool
	timeout         time.Duration
	tlsConfig       *tls.Config
	pollingInterval time.Duration
	minBetweenPolls time.Duration
	performStartup  bool
}

const (
	defaultPollInterval    = 30 * time.Second
	minPollInterval        = 10 * time.Second
	defaultMinBetweenPolls = 5 * time.Second
)

func defaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		timeout:         internal.DefaultHTTPClientTimeout,
		pollingInterval: defaultPollInterval,
		minBetweenPolls: defaultMinBetweenPolls,
		performStartup:  true,
	}
}

// Option configures an HTTPClientConfig. Options are applied in order, then
// normalized by normalize.
type Option func(*HTTPClientConfig)

// WithURL sets the OpAMP server endpoint. Required.
func WithURL(url string) Option {
	return func(c *HTTPClientConfig) { c.url = url }
}

// WithHeaders sets additional request headers. Content-Type is always
// overridden to application/x-protobuf regardless of what's passed here.
func WithHeaders(headers map[string]string) Option {
	return func(c *HTTPClientConfig) { c.headers = headers }
}

// WithGzipCompression enables gzip framing and the matching
// Content-Encoding/Accept-Encoding headers.
func WithGzipCompression(enabled bool) Option {
	return func(c *HTTPClientConfig) { c.gzipCompression = enabled }
}

// WithTimeout overrides the connect-and-overall request timeout. Default 30s.
func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClientConfig) { c.timeout = timeout }
}

// WithTLSConfig applies a TLS client configuration to the sender's
// transport, e.g. for mutual-TLS authentication.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *HTTPClientConfig) { c.tlsConfig = cfg }
}

// WithPollingInterval sets the managed client's periodic ticker interval.
// Values below 10s are clamped up to 10s with a logged warning.
func WithPollingInterval(interval time.Duration) Option {
	return func(c *HTTPClientConfig) { c.pollingInterval = interval }
}

// WithMinDurationBetweenPolls sets the back-off applied after a
// pending-message-driven poll before another may run.
func WithMinDurationBetweenPolls(d time.Duration) Option {
	return func(c *HTTPClientConfig) { c.minBetweenPolls = d }
}

// WithPerformStartupCheck controls whether Start's initial synchronous poll
// failure aborts startup (true, the default) or is merely logged (false).
func WithPerformStartupCheck(enabled bool) Option {
	return func(c *HTTPClientConfig) { c.performStartup = enabled }
}

// applyStartSettings seeds cfg from StartSettings' transport fields before
// any Option is applied, so an explicit Option always wins over a value
// carried on StartSettings. Fields left at their Go zero value (empty
// string/map, nil pointer, zero duration) leave the existing cfg default in
// place rather than stomping it.
func applyStartSettings(cfg *HTTPClientConfig, settings types.StartSettings) {
	if settings.OpAMPServerURL != "" {
		cfg.url = settings.OpAMPServerURL
	}
	if settings.Header != nil {
		cfg.headers = settings.Header
	}
	if settings.TLSConfig != nil {
		cfg.tlsConfig = settings.TLSConfig
	}
	cfg.gzipCompression = settings.GzipCompression
	if settings.HTTPClientTimeout > 0 {
		cfg.timeout = settings.HTTPClientTimeout
	}
	if settings.PollingInterval > 0 {
		cfg.pollingInterval = settings.PollingInterval
	}
	if settings.MinDurationBetweenPolls > 0 {
		cfg.minBetweenPolls = settings.MinDurationBetweenPolls
	}
	cfg.performStartup = cfg.performStartup && !settings.DisableStartupCheck
}

// normalize enforces the builder-time configuration rules: poll_interval
// has a 10s floor, and min_duration_between_poll is raised to 10s whenever
// the chosen interval is at or below that floor so back-off never
// meaningfully exceeds the interval it's supposed to pace.
func (c *HTTPClientConfig) normalize(logger *zap.Logger) {
	if c.pollingInterval < minPollInterval {
		logger.Warn("polling interval below minimum, clamping",
			zap.Duration("requested", c.pollingInterval),
			zap.Duration("minimum", minPollInterval))
		c.pollingInterval = minPollInterval
	}
	if c.pollingInterval <= minPollInterval && c.minBetweenPolls < minPollInterval {
		c.minBetweenPolls = minPollInterval
	}
}
