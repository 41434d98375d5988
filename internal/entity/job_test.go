package entity

import (
	"encoding/json"
	"testing"

	"github.com/andreyxaxa/Asset-Pipeline/pkg/types/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioConversionWireFields(t *testing.T) {
	b, err := json.Marshal(AudioConversion{
		OriginalFilePath: "/data/audio/wav/2024-03/a.wav",
		YearMonth:        "2024-03",
		NewFileName:      "a.wav",
	})
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"originalFilePath":"/data/audio/wav/2024-03/a.wav","yearMonth":"2024-03","newFileName":"a.wav"}`,
		string(b))
}

func TestDecodeJobByQueue(t *testing.T) {
	payload := []byte(`{"originalFilePath":"/p/x.webp","yearMonth":"2024-03","newFileName":"x.webp","extension":"webp"}`)

	job, err := DecodeJob(ImageProcessingQueue, payload)
	require.NoError(t, err)

	img, ok := job.(ImageProcessing)
	require.True(t, ok)
	assert.Equal(t, "webp", img.Extension)
	assert.Equal(t, "/p/x.webp", img.Source())
	assert.Equal(t, ImageProcessingQueue, img.Queue())
}

func TestDecodeJobUnknownQueue(t *testing.T) {
	_, err := DecodeJob("videoQueue", []byte(`{}`))
	assert.ErrorIs(t, err, errs.ErrUnknownQueue)
}
