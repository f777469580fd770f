// Package cotpub mirrors encoded CoT events up to a Google Cloud Pub/Sub
// topic, so fleet-wide consumers (archivers, dashboards) can subscribe
// without sitting on the UDP multicast segment.
package cotpub

// https://cloud.google.com/pubsub/docs

import (
	"context"
	"fmt"
	"log"
	"sync"

	"cloud.google.com/go/pubsub"
)

type Publisher struct {
	Log *log.Logger

	client *pubsub.Client
	topic  *pubsub.Topic
	wg     sync.WaitGroup
}

// New connects to the project and binds the topic. An empty topic name is a
// dry run; Send becomes a no-op and callers needn't special-case it.
func New(ctx context.Context, project, topicName string) (*Publisher, error) {
	if topicName == "" {
		return &Publisher{}, nil
	}

	client, err := pubsub.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("cotpub: client for %s: %w", project, err)
	}

	return &Publisher{client: client, topic: client.Topic(topicName)}, nil
}

// Send publishes one encoded event. The server ack is collected in its own
// goroutine, so as not to hold up reading new messages; a failed publish is
// logged, not returned, matching the fire-and-forget output contract.
func (p *Publisher) Send(ctx context.Context, b []byte) error {
	if p.topic == nil {
		return nil // dry-run mode
	}

	res := p.topic.Publish(ctx, &pubsub.Message{Data: b})

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if _, err := res.Get(ctx); err != nil && p.Log != nil {
			p.Log.Printf("-- cotpub publish err: %v", err)
		}
	}()

	return nil
}

// Close waits out the in-flight publishes and releases the client.
func (p *Publisher) Close() error {
	p.wg.Wait()
	if p.topic != nil {
		p.topic.Stop()
	}
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
