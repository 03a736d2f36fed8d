// Package kafka mirrors the broadcast channel into a Redpanda topic, so
// emitted events can be replayed or audited outside the process. The
// mirror is strictly one-way: nothing is ever consumed back into the hub.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kmsg"

	"library-streaming-api/pkg/broadcast"
	"library-streaming-api/pkg/metrics"
)

// Mirror owns one producer client. Events are keyed by their event name,
// so per-stream ordering survives partitioning.
type Mirror struct {
	client *kgo.Client
	topic  string
	met    *metrics.Metrics
	log    *logrus.Entry
}

// NewMirror connects to the brokers and makes sure the topic exists.
func NewMirror(brokers []string, topic string, met *metrics.Metrics, log *logrus.Entry) (*Mirror, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(2*1024*1024),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.RetryTimeout(20*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &Mirror{client: client, topic: topic, met: met, log: log}, nil
}

func ensureTopic(client *kgo.Client, topic string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	req := &kmsg.CreateTopicsRequest{
		Topics: []kmsg.CreateTopicsRequestTopic{
			{
				Topic:             topic,
				NumPartitions:     1,
				ReplicationFactor: 1,
			},
		},
	}

	resp, err := req.RequestWith(ctx, client)
	if err != nil {
		return fmt.Errorf("create topic: %w", err)
	}
	for _, t := range resp.Topics {
		// 36 means the topic already exists, which is the usual case.
		if t.ErrorCode != 0 && t.ErrorCode != 36 {
			return fmt.Errorf("create topic %s: error code %d", t.Topic, t.ErrorCode)
		}
	}
	return nil
}

// Run copies hub events into the topic until the context ends. Produce
// failures are counted and logged but never interrupt the copy; the hub's
// drop-on-slow delivery already shields the schedulers from a slow broker.
func (m *Mirror) Run(ctx context.Context, hub *broadcast.Hub) {
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	m.log.WithField("topic", m.topic).Info("kafka mirror running")
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			m.produce(ctx, ev)
		}
	}
}

func (m *Mirror) produce(ctx context.Context, ev broadcast.Event) {
	record, err := buildRecord(m.topic, ev)
	if err != nil {
		m.met.KafkaErrors.Inc()
		m.log.WithError(err).Warn("mirror: encode event")
		return
	}
	if err := m.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		if ctx.Err() != nil {
			return
		}
		m.met.KafkaErrors.Inc()
		m.log.WithError(err).WithField("event", ev.Event).Warn("mirror: produce failed")
	}
}

func buildRecord(topic string, ev broadcast.Event) (*kgo.Record, error) {
	payload, err := ev.Marshal()
	if err != nil {
		return nil, err
	}
	return &kgo.Record{Topic: topic, Key: []byte(ev.Event), Value: payload}, nil
}

// Close flushes and releases the producer.
func (m *Mirror) Close() {
	m.client.Close()
}
