package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/joao-fontenele/posflow/internal/domain"
)

type recordingWriter struct {
	msgs []kafka.Message
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestTopicFor(t *testing.T) {
	topic, err := TopicFor(domain.OrderCompletedEvent{})
	require.NoError(t, err)
	assert.Equal(t, TopicOrderCompleted, topic)

	topic, err = TopicFor(&domain.OrderReversedEvent{})
	require.NoError(t, err)
	assert.Equal(t, TopicOrderReversed, topic)

	_, err = TopicFor("nope")
	assert.Error(t, err)
}

func TestProducer_Publish(t *testing.T) {
	otel.SetTracerProvider(sdktrace.NewTracerProvider())
	otel.SetTextMapPropagator(propagation.TraceContext{})

	w := &recordingWriter{}
	p := &Producer{writer: w}

	event := domain.OrderReversedEvent{OrderID: "o-1", Restocked: []string{"p-1"}, Skipped: []string{}, Timestamp: time.Now().UTC()}
	require.NoError(t, p.Publish(context.Background(), "o-1", event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, TopicOrderReversed, msg.Topic)
	assert.Equal(t, "o-1", string(msg.Key))
	assert.NotEmpty(t, headerCarrier{msg: &msg}.Get("traceparent"))

	var decoded domain.OrderReversedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, []string{"p-1"}, decoded.Restocked)
}

func TestHeaderCarrier_SetReplaces(t *testing.T) {
	msg := kafka.Message{Headers: []kafka.Header{{Key: "a", Value: []byte("1")}, {Key: "b", Value: []byte("2")}}}
	c := headerCarrier{msg: &msg}

	c.Set("a", "3")

	assert.Equal(t, "3", c.Get("a"))
	assert.Equal(t, "2", c.Get("b"))
	assert.ElementsMatch(t, []string{"a", "b"}, c.Keys())
}
