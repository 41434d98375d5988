package kafka

import (
	"testing"

	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope(t *testing.T) {
	id := uuid.New()
	msg := kafka.Message{
		Value: []byte(`{"originalFilePath":"/u/a.wav","yearMonth":"2024-03","newFileName":"a.wav"}`),
		Headers: []kafka.Header{
			{Key: HeaderJobID, Value: []byte(id.String())},
			{Key: HeaderQueue, Value: []byte(entity.AudioConversionQueue)},
		},
	}

	gotID, job, err := Envelope(msg)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.Equal(t, entity.AudioConversion{OriginalFilePath: "/u/a.wav", YearMonth: "2024-03", NewFileName: "a.wav"}, job)
}

func TestEnvelopeUnknownQueueKeepsID(t *testing.T) {
	id := uuid.New()
	msg := kafka.Message{
		Value: []byte(`{}`),
		Headers: []kafka.Header{
			{Key: HeaderJobID, Value: []byte(id.String())},
			{Key: HeaderQueue, Value: []byte("videoQueue")},
		},
	}

	gotID, _, err := Envelope(msg)
	assert.Error(t, err)
	assert.Equal(t, id, gotID)
}

func TestEnvelopeMissingID(t *testing.T) {
	_, _, err := Envelope(kafka.Message{Value: []byte(`{}`)})
	assert.Error(t, err)
}
