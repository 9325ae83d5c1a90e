package tts

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"go.uber.org/zap"

	"github.com/wras-dhh/server/domain"
	"github.com/wras-dhh/server/domain/entities"
	"github.com/wras-dhh/server/domain/repositories"
	"github.com/wras-dhh/server/internal/segmenter"
)

const (
	// Announcements are read a touch slower than conversational speech so
	// station numbers stay intelligible over platform loudspeakers.
	defaultSpeakingRate = 0.9
	defaultPitch        = 0.0
	defaultVolumeGainDb = 0.0
)

// GoogleSynthesizerConfig holds configuration for the GoogleSynthesizer.
// Voices is required, one voice name per language, e.g.
// "en-IN-Chirp3-HD-Achernar"; the voice table normally comes from
// config.Load. SpeakingRate defaults to 0.9; Pitch and VolumeGainDb default
// to 0.
type GoogleSynthesizerConfig struct {
	Voices       map[entities.Language]string
	SpeakingRate float64
	Pitch        float64
	VolumeGainDb float64
}

// ValidateGoogleSynthesizerConfig validates the GoogleSynthesizerConfig.
func ValidateGoogleSynthesizerConfig(config GoogleSynthesizerConfig) error {
	for _, lang := range entities.GenerationOrder {
		if config.Voices[lang] == "" {
			return fmt.Errorf("no voice configured for language %s", lang)
		}
	}
	if config.SpeakingRate != 0 && (config.SpeakingRate < 0.25 || config.SpeakingRate > 4.0) {
		return fmt.Errorf("speaking rate must be between 0.25 and 4.0, got %f", config.SpeakingRate)
	}
	if config.Pitch < -20 || config.Pitch > 20 {
		return fmt.Errorf("pitch must be between -20 and 20, got %f", config.Pitch)
	}
	return nil
}

// GoogleSynthesizer implements repositories.Synthesizer on Google Cloud
// Text-to-Speech, producing MP3 audio.
type GoogleSynthesizer struct {
	client       *texttospeech.Client
	voices       map[entities.Language]string
	speakingRate float64
	pitch        float64
	volumeGainDb float64
	logger       *zap.Logger
}

var _ repositories.Synthesizer = (*GoogleSynthesizer)(nil)

// NewGoogleSynthesizer creates a new Google Cloud TTS instance.
func NewGoogleSynthesizer(ctx context.Context, config GoogleSynthesizerConfig, logger *zap.Logger) (*GoogleSynthesizer, error) {
	if err := ValidateGoogleSynthesizerConfig(config); err != nil {
		return nil, err
	}

	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech client: %w", err)
	}

	speakingRate := config.SpeakingRate
	if speakingRate == 0 {
		speakingRate = defaultSpeakingRate
	}

	return &GoogleSynthesizer{
		client:       client,
		voices:       config.Voices,
		speakingRate: speakingRate,
		pitch:        config.Pitch,
		volumeGainDb: config.VolumeGainDb,
		logger:       logger,
	}, nil
}

// Synthesize implements repositories.Synthesizer. Digit runs are spelled
// out before synthesis so voices read "one two" rather than "twelve".
func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text string, lang entities.Language) ([]byte, error) {
	voice, ok := g.voices[lang]
	if !ok {
		return nil, &domain.SynthesisError{Language: lang, Err: fmt.Errorf("no voice configured")}
	}

	spoken := segmenter.ExpandDigits(text)

	resp, err := g.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: spoken},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: lang.LocaleCode(),
			Name:         voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  g.speakingRate,
			Pitch:         g.pitch,
			VolumeGainDb:  g.volumeGainDb,
		},
	})
	if err != nil {
		return nil, &domain.SynthesisError{Language: lang, Err: err}
	}
	if len(resp.AudioContent) == 0 {
		return nil, &domain.SynthesisError{Language: lang, Err: fmt.Errorf("empty audio returned for %q", spoken)}
	}

	g.logger.Debug("synthesized speech",
		zap.String("language", string(lang)),
		zap.String("voice", voice),
		zap.Int("bytes", len(resp.AudioContent)),
	)
	return resp.AudioContent, nil
}

func (g *GoogleSynthesizer) Close() error {
	return g.client.Close()
}
