package adapter

import (
	"context"
	"encoding/base64"
	"io"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"mindmesh/backend/pkg/errors"
	"mindmesh/backend/pkg/logger"
)

// AudioSynthesizer is the audio-generation capability: given a narration
// script, produce playable audio as a base64 data URL.
type AudioSynthesizer interface {
	Synthesize(ctx context.Context, scriptText string) (string, error)
}

// TTSAdapter produces speech audio through the OpenAI-compatible endpoint
type TTSAdapter struct {
	client *openai.Client
	model  string
	voice  string
	logger *zap.Logger
}

// NewTTSAdapter creates a new text-to-speech adapter
func NewTTSAdapter(baseURL, apiKey, modelID, voice string) *TTSAdapter {
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL + "/v1"

	return &TTSAdapter{
		client: openai.NewClientWithConfig(config),
		model:  modelID,
		voice:  voice,
		logger: logger.Get(),
	}
}

// Synthesize renders the script to MP3 and returns it as a data URL, so the
// frontend can feed it straight into an <audio> element without a second
// fetch.
func (a *TTSAdapter) Synthesize(ctx context.Context, scriptText string) (string, error) {
	resp, err := a.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(a.model),
		Voice:          openai.SpeechVoice(a.voice),
		Input:          scriptText,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		a.logger.Error("TTS request failed", zap.Error(err), zap.String("model", a.model))
		return "", errors.NewCapability("audio-generation", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return "", errors.NewCapability("audio-generation", err)
	}

	a.logger.Debug("TTS audio generated",
		zap.String("model", a.model),
		zap.Int("bytes", len(audio)),
	)

	return "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(audio), nil
}
