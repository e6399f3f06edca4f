package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"exegesisai/pkg/domain"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const (
	defaultGenerationModel = "gemini-3-pro-preview"
	defaultImageModel      = "gemini-2.5-flash-image"
	defaultTTSModel        = "gemini-2.5-flash-preview-tts"
)

// imageStylePrefix biases image generation away from anachronism and toward
// a consistent visual register.
const imageStylePrefix = "Historical biblical reconstruction, academic realism, 4k cinematic lighting: "

// Config holds construction-time settings for the Gemini client. The API key
// is injected here rather than read from the environment per call so tests
// can point the client at a fake provider.
type Config struct {
	APIKey          string
	BaseURL         string
	HTTPClient      *http.Client
	GenerationModel string
	ImageModel      string
	TTSModel        string
	ThinkingBudget  int
	Grounding       bool
	MaxAttempts     int
	BaseDelay       time.Duration
	Sleep           func(time.Duration)
}

// Client calls the Google AI Studio (Gemini) API for exegesis analysis,
// image generation, and speech synthesis.
type Client struct {
	apiKey          string
	baseURL         string
	httpClient      *http.Client
	generationModel string
	imageModel      string
	ttsModel        string
	thinkingBudget  int
	grounding       bool
	maxAttempts     int
	baseDelay       time.Duration
	sleep           func(time.Duration)
}

// NewClient constructs a client with the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key required")
	}
	c := &Client{
		apiKey:          apiKey,
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:      cfg.HTTPClient,
		generationModel: cfg.GenerationModel,
		imageModel:      cfg.ImageModel,
		ttsModel:        cfg.TTSModel,
		thinkingBudget:  cfg.ThinkingBudget,
		grounding:       cfg.Grounding,
		maxAttempts:     cfg.MaxAttempts,
		baseDelay:       cfg.BaseDelay,
		sleep:           cfg.Sleep,
	}
	if c.baseURL == "" {
		c.baseURL = defaultGeminiBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if c.generationModel == "" {
		c.generationModel = defaultGenerationModel
	}
	if c.imageModel == "" {
		c.imageModel = defaultImageModel
	}
	if c.ttsModel == "" {
		c.ttsModel = defaultTTSModel
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = 3
	}
	if c.baseDelay <= 0 {
		c.baseDelay = 500 * time.Millisecond
	}
	if c.sleep == nil {
		c.sleep = time.Sleep
	}
	return c, nil
}

// Analyze requests a structured exegesis for the query. The response is
// validated against the analysis schema before it is returned; grounding
// citations, when present, are mapped into Sources.
func (c *Client) Analyze(ctx context.Context, query string) (domain.AnalysisResult, error) {
	reqBody := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: analysisPrompt(query)}},
		}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   &analysisSchema,
		},
	}
	if c.thinkingBudget > 0 {
		reqBody.GenerationConfig.ThinkingConfig = &thinkingConfig{ThinkingBudget: c.thinkingBudget}
	}
	if c.grounding {
		reqBody.Tools = []tool{{GoogleSearch: &googleSearch{}}}
	}

	var resp generateResponse
	err := c.withRetry(ctx, func() error {
		resp = generateResponse{}
		return c.doJSON(ctx, c.modelURL(c.generationModel), reqBody, &resp)
	})
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	text := resp.firstText()
	if strings.TrimSpace(text) == "" {
		return domain.AnalysisResult{}, ErrEmptyResponse
	}
	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return domain.AnalysisResult{}, &SchemaError{Reason: fmt.Sprintf("parse analysis JSON: %v", err)}
	}
	if err := validateAnalysis(result); err != nil {
		return domain.AnalysisResult{}, err
	}
	result.Sources = resp.groundingSources()
	return result, nil
}

// GenerateImage requests an illustrative image for the prompt and returns
// the raw image bytes. A declined or empty generation returns (nil, nil);
// callers treat images as best-effort.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	reqBody := generateRequest{
		Contents: []content{{
			Parts: []part{{Text: imageStylePrefix + prompt}},
		}},
		GenerationConfig: &generationConfig{
			ImageConfig: &imageConfig{AspectRatio: "16:9"},
		},
	}
	var resp generateResponse
	if err := c.doJSON(ctx, c.modelURL(c.imageModel), reqBody, &resp); err != nil {
		return nil, err
	}
	data := resp.firstInlineData()
	if data == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return raw, nil
}

// Synthesize requests narration audio for the text and returns raw
// little-endian 16-bit PCM bytes at 24 kHz. An empty payload returns
// (nil, nil); narration is best-effort.
func (c *Client) Synthesize(ctx context.Context, text, voice, language string) ([]byte, error) {
	if strings.TrimSpace(voice) == "" {
		voice = domain.DefaultVoice
	}
	if strings.TrimSpace(language) == "" {
		language = domain.DefaultLanguage
	}
	reqBody := generateRequest{
		Contents: []content{{
			Parts: []part{{Text: fmt.Sprintf("Narre com solenidade acadêmica em %s: %s", language, text)}},
		}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: voice},
				},
			},
		},
	}
	var resp generateResponse
	if err := c.doJSON(ctx, c.modelURL(c.ttsModel), reqBody, &resp); err != nil {
		return nil, err
	}
	data := resp.firstInlineData()
	if data == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode audio payload: %w", err)
	}
	return raw, nil
}

func analysisPrompt(query string) string {
	return fmt.Sprintf(`Realize uma exegese bíblica acadêmica para: %q.
Use o método gramático-histórico. Fale sobre o contexto sociopolítico, filologia e intenção original.
Responda em Português seguindo rigorosamente o esquema JSON.`, query)
}

func validateAnalysis(r domain.AnalysisResult) error {
	missing := ""
	switch {
	case strings.TrimSpace(r.Verse) == "":
		missing = "verse"
	case strings.TrimSpace(r.Context) == "":
		missing = "context"
	case strings.TrimSpace(r.HistoricalAnalysis) == "":
		missing = "historicalAnalysis"
	case strings.TrimSpace(r.TheologicalInsights) == "":
		missing = "theologicalInsights"
	case len(r.OriginalLanguages) == 0:
		missing = "originalLanguages"
	case strings.TrimSpace(r.ImagePrompt) == "":
		missing = "imagePrompt"
	}
	if missing != "" {
		return &SchemaError{Field: missing}
	}
	return nil
}

func normalizeModel(model string) string {
	model = strings.TrimSpace(model)
	model = strings.TrimPrefix(model, "models/")
	return model
}

func (c *Client) modelURL(model string) string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, normalizeModel(model), c.apiKey)
}

func (c *Client) doJSON(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ProviderError{Kind: KindUnknown, Message: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return classify(resp.StatusCode, errResp.Error.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}
