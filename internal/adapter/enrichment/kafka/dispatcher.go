// Package kafka publishes enrichment jobs to a Kafka topic for workers to pick up.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/lexand-dev/vid-skool/internal/core"
)

// DefaultTopic receives enrichment jobs when none is configured.
const DefaultTopic = "studio.enrichment.jobs"

// JobMessage is the envelope workers consume. Workers post the result back to
// the webhook as enrichment.<kind>.done with JobVersion echoed.
type JobMessage struct {
	JobID       string    `json:"jobId"`
	Kind        string    `json:"kind"`
	AssetID     string    `json:"assetId"`
	OwnerID     string    `json:"ownerId"`
	JobVersion  int64     `json:"jobVersion"`
	AssetRef    string    `json:"assetRef,omitempty"`
	PlaybackRef string    `json:"playbackRef,omitempty"`
	CaptionRef  string    `json:"captionRef,omitempty"`
	Prompt      string    `json:"prompt,omitempty"`
	RequestedAt time.Time `json:"requestedAt"`
}

// NewProducerConfig returns the producer settings used by the dispatcher.
func NewProducerConfig(clientID string) *sarama.Config {
	config := sarama.NewConfig()
	config.ClientID = clientID
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	return config
}

// NewSyncProducer connects a synchronous producer to the brokers.
func NewSyncProducer(brokers []string, clientID string) (sarama.SyncProducer, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewProducerConfig(clientID))
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return producer, nil
}

// Dispatcher implements core.EnrichmentDispatcher.
type Dispatcher struct {
	producer sarama.SyncProducer
	topic    string
	now      func() time.Time
}

// NewDispatcher constructs a dispatcher publishing to topic.
func NewDispatcher(producer sarama.SyncProducer, topic string) *Dispatcher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Dispatcher{
		producer: producer,
		topic:    topic,
		now:      time.Now,
	}
}

// WithClock overrides the clock used for RequestedAt.
func (d *Dispatcher) WithClock(fn func() time.Time) {
	if fn != nil {
		d.now = fn
	}
}

var _ core.EnrichmentDispatcher = (*Dispatcher)(nil)

// Trigger publishes the job keyed by asset id so jobs for one asset stay ordered
// within a partition.
func (d *Dispatcher) Trigger(ctx context.Context, req core.EnrichmentRequest) (*core.JobHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	handle := &core.JobHandle{
		ID:          uuid.New(),
		AssetID:     req.AssetID,
		Kind:        req.Kind,
		Revision:    req.Revision,
		RequestedAt: d.now().UTC(),
	}

	payload, err := json.Marshal(JobMessage{
		JobID:       handle.ID.String(),
		Kind:        string(req.Kind),
		AssetID:     req.AssetID.String(),
		OwnerID:     req.OwnerID,
		JobVersion:  req.Revision,
		AssetRef:    req.AssetRef,
		PlaybackRef: req.PlaybackRef,
		CaptionRef:  req.CaptionRef,
		Prompt:      req.Params.Prompt,
		RequestedAt: handle.RequestedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode job: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: d.topic,
		Key:   sarama.StringEncoder(req.AssetID.String()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("job-kind"), Value: []byte(req.Kind)},
		},
	}
	if _, _, err := d.producer.SendMessage(msg); err != nil {
		return nil, fmt.Errorf("publish %s job: %w", req.Kind, err)
	}
	return handle, nil
}
