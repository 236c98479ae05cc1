// Package gochannel provides the in-memory event channel used by single-process deployments.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const defaultBuffer = 1000

type Option func(*gochannel.Config)

// WithBuffer sets how many events may wait for a slow subscriber.
func WithBuffer(size int64) Option {
	return func(c *gochannel.Config) { c.OutputChannelBuffer = size }
}

// WithReplay keeps published events and delivers them to late subscribers,
// so a watcher started after the first evaluation still sees it.
func WithReplay() Option {
	return func(c *gochannel.Config) { c.Persistent = true }
}

// CreateChannel returns one GoChannel acting as both publisher and subscriber.
// Publishing never waits for acks: evaluation must not block on listeners.
func CreateChannel(logger watermill.LoggerAdapter, opts ...Option) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	config := gochannel.Config{OutputChannelBuffer: defaultBuffer}

	for _, opt := range opts {
		opt(&config)
	}

	config.BlockPublishUntilSubscriberAck = false

	pubSub := gochannel.NewGoChannel(config, logger)

	return pubSub, pubSub, nil
}
