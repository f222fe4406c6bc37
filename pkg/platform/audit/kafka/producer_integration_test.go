//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "serviapp/pkg/platform/audit"
	"serviapp/pkg/testutil/containers"
)

func TestProducer_PublishesOutboxRows(t *testing.T) {
	kc := containers.NewKafkaContainer(t)
	ctx := context.Background()

	const topic = "serviapp.moderation.audit.test"

	producer, err := NewProducer([]string{kc.Broker}, topic)
	require.NoError(t, err)
	defer producer.Close()

	rows := []audit.OutboxRow{
		{ID: "row-1", Action: "registration_submitted", Payload: []byte(`{"action":"registration_submitted"}`)},
		{ID: "row-2", Action: "registration_approved", Payload: []byte(`{"action":"registration_approved"}`)},
	}
	require.NoError(t, producer.Produce(ctx, rows))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(kc.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var records []*kgo.Record
	for len(records) < len(rows) {
		fetches := consumer.PollFetches(fetchCtx)
		require.NoError(t, fetches.Err())
		records = append(records, fetches.Records()...)
	}

	require.Len(t, records, 2)
	assert.Equal(t, "registration_submitted", string(records[0].Key))
	assert.JSONEq(t, `{"action":"registration_submitted"}`, string(records[0].Value))
	assert.Equal(t, "registration_approved", string(records[1].Key))
}

func TestProducer_CreatesTopicOnConnect(t *testing.T) {
	kc := containers.NewKafkaContainer(t)

	producer, err := NewProducer([]string{kc.Broker}, "serviapp.fresh.topic")
	require.NoError(t, err)
	producer.Close()

	// A second connect sees the existing topic and must not fail.
	producer, err = NewProducer([]string{kc.Broker}, "serviapp.fresh.topic")
	require.NoError(t, err)
	producer.Close()
}
