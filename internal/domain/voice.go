package domain

// Voice is a catalog entry from the voice provider.
type Voice struct {
	ID              string   `json:"id"`
	VoiceID         string   `json:"voiceId"`
	Name            string   `json:"name"`
	Accent          string   `json:"accent,omitempty"`
	Model           string   `json:"model,omitempty"`
	Provider        string   `json:"provider"`
	Language        string   `json:"language,omitempty"`
	Stability       *float64 `json:"stability,omitempty"`
	SimilarityBoost *float64 `json:"similarityBoost,omitempty"`
	Speed           *float64 `json:"speed,omitempty"`
}

// ProviderVoiceID returns the provider-side voice identifier, falling back to the catalog ID.
func (v Voice) ProviderVoiceID() string {
	if v.VoiceID != "" {
		return v.VoiceID
	}
	return v.ID
}
