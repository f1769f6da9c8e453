package wizard

import "github.com/ClareAI/astra-voice-admin/internal/domain"

// NewDraft returns a draft with the optional fields defaulted. The call
// termination duration is left unset so that it is always chosen explicitly.
func NewDraft() domain.AssistantDraft {
	d := domain.AssistantDraft{
		AgentType: domain.AgentTypeConversation,
		LLMConfig: domain.LLMConfig{
			AgentFlowType: "streaming",
			Provider:      "openai",
			Family:        "openai",
			MaxTokens:     150,
			Temperature:   0.2,
			TopP:          0.9,
		},
		VoiceMode: domain.VoiceModeManual,
		SynthesizerConfig: domain.SynthesizerConfig{
			Stream:         true,
			BufferSize:     150,
			AudioFormat:    "wav",
			CachingEnabled: true,
		},
		TranscriberConfig: domain.TranscriberConfig{
			Provider:     "deepgram",
			Model:        "nova-2",
			Language:     "en",
			Stream:       true,
			SamplingRate: 16000,
			Encoding:     "linear16",
			Endpointing:  100,
		},
		InputConfig:  domain.IOConfig{Provider: "twilio", Format: "wav"},
		OutputConfig: domain.IOConfig{Provider: "twilio", Format: "wav"},
		TaskConfig: domain.TaskConfig{
			HangupAfterSilence:           10,
			IncrementalDelay:             400,
			NumberOfWordsForInterruption: 2,
			BackchannelingMessageGap:     5,
			BackchannelingStartDelay:     5,
			AmbientNoiseTrack:            "office-ambience",
		},
	}
	d = SetSynthesizerProvider(d, ProviderPolly)
	d.SynthesizerConfig.ProviderConfig.Language = "en-US"
	return d
}

// FromAssistant loads an existing assistant into a draft for editing.
func FromAssistant(a domain.Assistant) domain.AssistantDraft {
	pc := a.SynthesizerConfig.ProviderConfig
	d := domain.AssistantDraft{
		AssistantID:       a.ID,
		UserIDs:           []string{a.UserID},
		AgentName:         a.AgentName,
		AgentType:         a.AgentType,
		WelcomeMessage:    a.WelcomeMessage,
		SystemPrompt:      a.SystemPrompt,
		LLMConfig:         a.LLMConfig,
		VoiceMode:         domain.VoiceModeManual,
		VoiceName:         pc.Voice,
		VoiceID:           pc.VoiceID,
		SynthesizerConfig: a.SynthesizerConfig,
		TranscriberConfig: a.TranscriberConfig,
		InputConfig:       a.InputConfig,
		OutputConfig:      a.OutputConfig,
		TaskConfig:        a.TaskConfig,
	}
	return Clone(d)
}
