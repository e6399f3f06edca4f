package ai

import "exegesisai/pkg/domain"

// Wire types for the Gemini v1beta generateContent endpoint.

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type tool struct {
	GoogleSearch *googleSearch `json:"googleSearch,omitempty"`
}

type googleSearch struct{}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type generationConfig struct {
	ResponseMIMEType   string          `json:"responseMimeType,omitempty"`
	ResponseSchema     *schema         `json:"responseSchema,omitempty"`
	ThinkingConfig     *thinkingConfig `json:"thinkingConfig,omitempty"`
	ResponseModalities []string        `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig   `json:"speechConfig,omitempty"`
	ImageConfig        *imageConfig    `json:"imageConfig,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	Tools            []tool            `json:"tools,omitempty"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type schema struct {
	Type       string            `json:"type"`
	Properties map[string]schema `json:"properties,omitempty"`
	Items      *schema           `json:"items,omitempty"`
	Required   []string          `json:"required,omitempty"`
}

// analysisSchema pins the provider to the AnalysisResult shape.
var analysisSchema = schema{
	Type: "OBJECT",
	Properties: map[string]schema{
		"verse":               {Type: "STRING"},
		"context":             {Type: "STRING"},
		"historicalAnalysis":  {Type: "STRING"},
		"theologicalInsights": {Type: "STRING"},
		"originalLanguages": {
			Type: "ARRAY",
			Items: &schema{
				Type: "OBJECT",
				Properties: map[string]schema{
					"term":            {Type: "STRING"},
					"transliteration": {Type: "STRING"},
					"meaning":         {Type: "STRING"},
				},
			},
		},
		"imagePrompt": {Type: "STRING"},
	},
	Required: []string{"verse", "context", "historicalAnalysis", "theologicalInsights", "originalLanguages", "imagePrompt"},
}

type generateResponse struct {
	Candidates []struct {
		Content           content `json:"content"`
		GroundingMetadata *struct {
			GroundingChunks []struct {
				Web *struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

func (r *generateResponse) firstText() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	for _, p := range r.Candidates[0].Content.Parts {
		if p.Text != "" {
			return p.Text
		}
	}
	return ""
}

func (r *generateResponse) firstInlineData() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	for _, p := range r.Candidates[0].Content.Parts {
		if p.InlineData != nil && p.InlineData.Data != "" {
			return p.InlineData.Data
		}
	}
	return ""
}

func (r *generateResponse) groundingSources() []domain.Source {
	if len(r.Candidates) == 0 || r.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	chunks := r.Candidates[0].GroundingMetadata.GroundingChunks
	sources := make([]domain.Source, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Web == nil {
			continue
		}
		sources = append(sources, domain.Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	if len(sources) == 0 {
		return nil
	}
	return sources
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
