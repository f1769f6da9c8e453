package config

import "sort"

// LanguageNames provides human-readable names for the language codes the
// transcriber and synthesizer selectors offer.
var LanguageNames = map[string]string{
	"en":    "English",
	"en-US": "English (US)",
	"en-GB": "English (UK)",
	"en-IN": "English (India)",
	"en-AU": "English (Australia)",
	"hi":    "Hindi",
	"hi-IN": "Hindi (India)",
	"es":    "Spanish",
	"es-ES": "Spanish (Spain)",
	"fr":    "French",
	"fr-FR": "French (France)",
	"de":    "German",
	"de-DE": "German (Germany)",
	"pt":    "Portuguese",
	"pt-BR": "Portuguese (Brazil)",
	"ja":    "Japanese",
	"zh":    "Chinese",
}

// GetLanguageName returns the display name for a language code, or the code itself.
func GetLanguageName(code string) string {
	if name, ok := LanguageNames[code]; ok {
		return name
	}
	return code
}

// WizardOptions are the choices offered by the assistant wizard's selectors.
type WizardOptions struct {
	AgentTypes           []string            `json:"agentTypes"`
	LLMProviders         map[string][]string `json:"llmProviders"`
	SynthesizerProviders []string            `json:"synthesizerProviders"`
	TranscriberProviders map[string][]string `json:"transcriberProviders"`
	TelephonyProviders   []string            `json:"telephonyProviders"`
	Languages            []Language          `json:"languages"`
}

// Language is one selectable language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// DefaultWizardOptions returns the selector choices.
func DefaultWizardOptions() WizardOptions {
	langs := make([]Language, 0, len(LanguageNames))
	for code, name := range LanguageNames {
		langs = append(langs, Language{Code: code, Name: name})
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i].Code < langs[j].Code })

	return WizardOptions{
		AgentTypes: []string{"conversation", "webhook", "other"},
		LLMProviders: map[string][]string{
			"openai":    {"gpt-4o-mini", "gpt-4o", "gpt-4.1-mini", "gpt-3.5-turbo"},
			"anthropic": {"claude-3-5-haiku-latest", "claude-3-5-sonnet-latest"},
			"groq":      {"llama-3.1-8b-instant", "llama-3.3-70b-versatile"},
		},
		SynthesizerProviders: []string{"polly", "elevenlabs"},
		TranscriberProviders: map[string][]string{
			"deepgram": {"nova-2", "nova-2-phonecall", "nova-3"},
		},
		TelephonyProviders: []string{"twilio", "plivo", "exotel"},
		Languages:          langs,
	}
}
