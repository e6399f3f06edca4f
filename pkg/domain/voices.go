package domain

// VoiceGender groups narration voices for display.
type VoiceGender string

const (
	VoiceMale   VoiceGender = "male"
	VoiceFemale VoiceGender = "female"
)

// Voice maps a provider voice ID to a display label.
type Voice struct {
	ID     string      `json:"id"`
	Label  string      `json:"label"`
	Gender VoiceGender `json:"gender"`
}

// DefaultVoice is used when a narration request omits the voice.
const DefaultVoice = "Kore"

// DefaultLanguage is used when a narration request omits the language.
const DefaultLanguage = "Português"

var voices = []Voice{
	{ID: "Kore", Label: "Estevão (Sóbrio)", Gender: VoiceMale},
	{ID: "Charon", Label: "Bento (Profundo)", Gender: VoiceMale},
	{ID: "Puck", Label: "Sara (Narrativa)", Gender: VoiceFemale},
	{ID: "Zephyr", Label: "Aurora (Clara)", Gender: VoiceFemale},
}

var languages = []string{"Português", "Inglês", "Hebreu", "Grego"}

// Voices returns the closed set of selectable narration voices.
func Voices() []Voice {
	out := make([]Voice, len(voices))
	copy(out, voices)
	return out
}

// Languages returns the closed set of selectable narration languages.
func Languages() []string {
	out := make([]string, len(languages))
	copy(out, languages)
	return out
}

// ValidVoice reports whether id belongs to the voice set.
func ValidVoice(id string) bool {
	for _, v := range voices {
		if v.ID == id {
			return true
		}
	}
	return false
}

// ValidLanguage reports whether lang belongs to the language set.
func ValidLanguage(lang string) bool {
	for _, l := range languages {
		if l == lang {
			return true
		}
	}
	return false
}
