package stt

import (
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/wras-dhh/server/domain/entities"
	"github.com/wras-dhh/server/domain/repositories"
)

const defaultSampleRate = 16000

// GoogleRecognizer implements repositories.Recognizer on Google Cloud
// Speech-to-Text. One client is shared across requests.
type GoogleRecognizer struct {
	client *speech.Client
	logger *zap.Logger
}

func NewGoogleRecognizer(ctx context.Context, logger *zap.Logger) (*GoogleRecognizer, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &GoogleRecognizer{client: client, logger: logger}, nil
}

// Recognize transcribes an uploaded audio file. The container format is
// taken from the filename extension. No speech in the audio is not an
// error; the transcript is just empty.
func (g *GoogleRecognizer) Recognize(ctx context.Context, audio []byte, filename string, lang entities.Language) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("no audio data received")
	}

	config := &speechpb.RecognitionConfig{
		LanguageCode: lang.LocaleCode(),
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		config.Encoding = speechpb.RecognitionConfig_LINEAR16
		config.SampleRateHertz = int32(wavSampleRate(audio))
	case ".mp3":
		config.Encoding = speechpb.RecognitionConfig_MP3
		config.SampleRateHertz = defaultSampleRate
	case ".webm":
		config.Encoding = speechpb.RecognitionConfig_WEBM_OPUS
		config.SampleRateHertz = defaultSampleRate
	default:
		return "", fmt.Errorf("unsupported audio format: %s", filepath.Ext(filename))
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: config,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to recognize audio: %w", err)
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			parts = append(parts, result.Alternatives[0].Transcript)
		}
	}
	transcript := strings.TrimSpace(strings.Join(parts, " "))
	if transcript == "" {
		g.logger.Warn("no speech detected in audio", zap.String("filename", filename))
	}
	return transcript, nil
}

func (g *GoogleRecognizer) Close() error {
	return g.client.Close()
}

// wavSampleRate reads the sample rate from a RIFF header. Malformed input
// falls back to the default rate rather than failing the request.
func wavSampleRate(audio []byte) int {
	if len(audio) < 28 || string(audio[0:4]) != "RIFF" {
		return defaultSampleRate
	}
	rate := int(binary.LittleEndian.Uint32(audio[24:28]))
	if rate <= 0 {
		return defaultSampleRate
	}
	return rate
}

var _ repositories.Recognizer = (*GoogleRecognizer)(nil)
