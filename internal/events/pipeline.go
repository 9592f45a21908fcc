// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/parkwise/signage/internal/config"
	"github.com/parkwise/signage/internal/logging"
)

// Pipeline assembles the full event path: optional embedded broker,
// provisioned stream, resilient publisher, durable feed consumer. Built
// once at startup; its Run loop is supervised.
type Pipeline struct {
	cfg        config.EventsConfig
	server     *EmbeddedServer
	publisher  *Publisher
	subscriber *Subscriber
	consumer   *Consumer
	nc         *natsgo.Conn
}

// NewPipeline builds and connects the pipeline. With EmbeddedServer set
// the broker starts in-process and its client URL supersedes cfg.URL.
func NewPipeline(ctx context.Context, cfg *config.EventsConfig, store EventStore, hub Broadcaster) (*Pipeline, error) {
	p := &Pipeline{cfg: *cfg}
	wmLogger := watermill.NewSlogLogger(logging.NewSlogLogger())

	url := cfg.URL
	if cfg.EmbeddedServer {
		srvCfg, err := ServerConfigFromURL(cfg.URL, cfg.StoreDir)
		if err != nil {
			return nil, err
		}
		server, err := NewEmbeddedServer(&srvCfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded broker: %w", err)
		}
		p.server = server
		url = server.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS broker started")
	}

	nc, err := natsgo.Connect(url,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second))
	if err != nil {
		p.shutdownServer()
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	p.nc = nc

	retention := time.Duration(cfg.RetentionDays) * 24 * time.Hour
	streamCfg := DefaultStreamConfig(cfg.SubjectPrefix, retention)
	mgr, err := NewStreamManager(nc, &streamCfg)
	if err != nil {
		p.close()
		return nil, err
	}
	if _, err := mgr.EnsureStream(ctx); err != nil {
		p.close()
		return nil, fmt.Errorf("provision stream: %w", err)
	}

	pub, err := NewPublisher(DefaultPublisherConfig(url, cfg.SubjectPrefix), wmLogger)
	if err != nil {
		p.close()
		return nil, err
	}
	pub.SetCircuitBreaker(gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        "events-publish",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}))
	p.publisher = pub

	subCfg := DefaultSubscriberConfig(url)
	sub, err := NewSubscriber(&subCfg, wmLogger)
	if err != nil {
		p.close()
		return nil, err
	}
	p.subscriber = sub

	p.consumer = NewConsumer(sub, store, hub,
		DefaultConsumerConfig(cfg.SubjectPrefix, retention))

	return p, nil
}

// Bus returns the publish surface other subsystems hold.
func (p *Pipeline) Bus() Bus {
	return p.publisher
}

// Run drives the feed consumer until context cancellation.
func (p *Pipeline) Run(ctx context.Context) error {
	return p.consumer.Run(ctx)
}

// Close tears the pipeline down in reverse construction order.
func (p *Pipeline) Close() error {
	var firstErr error
	if p.subscriber != nil {
		if err := p.subscriber.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if p.publisher != nil {
		if err := p.publisher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.close()
	return firstErr
}

func (p *Pipeline) close() {
	if p.nc != nil {
		p.nc.Close()
		p.nc = nil
	}
	p.shutdownServer()
}

func (p *Pipeline) shutdownServer() {
	if p.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.server.Shutdown(ctx); err != nil {
		logging.Warn().Err(err).Msg("Embedded broker shutdown incomplete")
	}
	p.server = nil
}
