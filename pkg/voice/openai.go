package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"alexterm/pkg/protocol"
)

// Speech service defaults.
const (
	DefaultSTTModel = "whisper-1"
	DefaultTTSModel = "tts-1"
	DefaultVoice    = "onyx"
	DefaultLanguage = "en"
)

// errNoAPIKey is reported when no OpenAI key is configured.
var errNoAPIKey = errors.New("OpenAI API key not configured")

// OpenAI implements Transcriber and Synthesizer with the OpenAI audio API.
type OpenAI struct {
	client   *openai.Client
	hasKey   bool
	sttModel string
	ttsModel string
	voice    string
	language string
}

var (
	_ Transcriber = (*OpenAI)(nil)
	_ Synthesizer = (*OpenAI)(nil)
)

type openAIConfig struct {
	baseURL    string
	httpClient *http.Client
	sttModel   string
	ttsModel   string
	voice      string
	language   string
}

// OpenAIOption configures the OpenAI speech client.
type OpenAIOption func(*openAIConfig)

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(u string) OpenAIOption {
	return func(c *openAIConfig) { c.baseURL = u }
}

// WithOpenAIHTTPClient replaces the http.Client used for API calls.
func WithOpenAIHTTPClient(hc *http.Client) OpenAIOption {
	return func(c *openAIConfig) { c.httpClient = hc }
}

// WithModels sets the transcription and synthesis models. Empty values keep
// the defaults.
func WithModels(stt, tts string) OpenAIOption {
	return func(c *openAIConfig) {
		if stt != "" {
			c.sttModel = stt
		}
		if tts != "" {
			c.ttsModel = tts
		}
	}
}

// WithVoice sets the synthesis voice.
func WithVoice(v string) OpenAIOption {
	return func(c *openAIConfig) {
		if v != "" {
			c.voice = v
		}
	}
}

// WithLanguage sets the transcription language hint.
func WithLanguage(lang string) OpenAIOption {
	return func(c *openAIConfig) { c.language = lang }
}

// NewOpenAI creates the speech client. An empty apiKey yields a client whose
// calls fail with a configuration error instead of reaching the network.
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAI {
	cfg := openAIConfig{
		httpClient: http.DefaultClient,
		sttModel:   DefaultSTTModel,
		ttsModel:   DefaultTTSModel,
		voice:      DefaultVoice,
		language:   DefaultLanguage,
	}
	for _, o := range opts {
		o(&cfg)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(cfg.httpClient),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	client := openai.NewClient(clientOpts...)

	return &OpenAI{
		client:   &client,
		hasKey:   apiKey != "",
		sttModel: cfg.sttModel,
		ttsModel: cfg.ttsModel,
		voice:    cfg.voice,
		language: cfg.language,
	}
}

// Transcribe uploads the clip at path and returns the transcript.
func (o *OpenAI) Transcribe(ctx context.Context, path string) (string, error) {
	if !o.hasKey {
		return "", &protocol.TranscriptionError{Err: errNoAPIKey}
	}
	f, err := os.Open(path) //nolint:gosec // path is a temp file we created
	if err != nil {
		return "", &protocol.TranscriptionError{Err: err}
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(o.sttModel),
		File:  f,
	}
	if o.language != "" {
		params.Language = openai.String(o.language)
	}
	tr, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", &protocol.TranscriptionError{Err: err}
	}
	return tr.Text, nil
}

// Synthesize requests MP3 speech for text. The caller closes the reader.
func (o *OpenAI) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	if !o.hasKey {
		return nil, &protocol.SynthesisError{Err: errNoAPIKey}
	}
	resp, err := o.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(o.ttsModel),
		Voice:          openai.AudioSpeechNewParamsVoice(o.voice),
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, &protocol.SynthesisError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &protocol.SynthesisError{Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}
	return resp.Body, nil
}
