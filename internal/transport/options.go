// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"time"

	"github.com/jeranaias/huddle/internal/config"
)

// Options configures a Conn. Zero durations and sizes take the defaults from
// DefaultOptions.
type Options struct {
	// URL is the ws:// or wss:// endpoint.
	URL string

	HandshakeTimeout time.Duration
	// PingInterval is the keepalive period. PongWait must exceed it.
	PingInterval time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration

	// ReconnectAttempts is the number of redials after a failure before the
	// connection gives up. 0 disables redialing, negative means unlimited.
	ReconnectAttempts int
	// ReconnectDelay is the minimum spacing between dial attempts.
	ReconnectDelay time.Duration

	SendQueueSize  int
	EventBuffer    int
	MaxMessageSize int64
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		URL:               "ws://localhost:8000/ws",
		HandshakeTimeout:  20 * time.Second,
		PingInterval:      25 * time.Second,
		PongWait:          45 * time.Second,
		WriteWait:         10 * time.Second,
		ReconnectAttempts: 5,
		ReconnectDelay:    time.Second,
		SendQueueSize:     64,
		EventBuffer:       256,
		MaxMessageSize:    1 << 20,
	}
}

// OptionsFromConfig maps the server section of the config onto Options.
func OptionsFromConfig(cfg config.ServerConfig) Options {
	opts := DefaultOptions()
	opts.URL = cfg.SocketURL
	opts.HandshakeTimeout = cfg.HandshakeTimeout()
	opts.PingInterval = cfg.PingInterval()
	opts.PongWait = 0
	opts.ReconnectAttempts = cfg.ReconnectAttempts
	opts.ReconnectDelay = cfg.ReconnectDelay()
	return opts.withDefaults()
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.URL == "" {
		o.URL = d.URL
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = d.HandshakeTimeout
	}
	if o.PingInterval <= 0 {
		o.PingInterval = d.PingInterval
	}
	if o.PongWait <= o.PingInterval {
		// Allow one missed ping before the read deadline expires.
		o.PongWait = o.PingInterval + o.PingInterval*4/5
	}
	if o.WriteWait <= 0 {
		o.WriteWait = d.WriteWait
	}
	if o.ReconnectDelay < 0 {
		o.ReconnectDelay = 0
	}
	if o.SendQueueSize <= 0 {
		o.SendQueueSize = d.SendQueueSize
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = d.EventBuffer
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = d.MaxMessageSize
	}
	return o
}
