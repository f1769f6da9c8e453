package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AssistantStatus is the lifecycle status of an assistant.
type AssistantStatus string

const (
	AssistantStatusDraft    AssistantStatus = "draft"
	AssistantStatusActive   AssistantStatus = "active"
	AssistantStatusInactive AssistantStatus = "inactive"
	AssistantStatusDeleted  AssistantStatus = "deleted"
)

// Valid reports whether s is a known status.
func (s AssistantStatus) Valid() bool {
	switch s {
	case AssistantStatusDraft, AssistantStatusActive, AssistantStatusInactive, AssistantStatusDeleted:
		return true
	}
	return false
}

// AgentType tags what kind of assistant a record is.
type AgentType string

const (
	AgentTypeConversation AgentType = "conversation"
	AgentTypeWebhook      AgentType = "webhook"
	AgentTypeOther        AgentType = "other"
)

// Assistant is a configured conversational voice agent owned by a user.
type Assistant struct {
	ID                string            `json:"id"`
	UserID            string            `json:"userId"`
	ProviderAgentID   string            `json:"providerAgentId,omitempty"`
	AgentName         string            `json:"agentName"`
	AgentType         AgentType         `json:"agentType"`
	WelcomeMessage    string            `json:"welcomeMessage"`
	SystemPrompt      string            `json:"systemPrompt"`
	LLMConfig         LLMConfig         `json:"llmConfig"`
	SynthesizerConfig SynthesizerConfig `json:"synthesizerConfig"`
	TranscriberConfig TranscriberConfig `json:"transcriberConfig"`
	InputConfig       IOConfig          `json:"inputConfig"`
	OutputConfig      IOConfig          `json:"outputConfig"`
	TaskConfig        TaskConfig        `json:"taskConfig"`
	Status            AssistantStatus   `json:"status"`
	User              *UserSummary      `json:"user,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// LLMConfig configures the language model behind an assistant.
type LLMConfig struct {
	AgentFlowType    string  `json:"agent_flow_type,omitempty" yaml:"agent_flow_type,omitempty"`
	Provider         string  `json:"provider" yaml:"provider"`
	Family           string  `json:"family,omitempty" yaml:"family,omitempty"`
	Model            string  `json:"model" yaml:"model"`
	BaseURL          string  `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	MaxTokens        int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Temperature      float64 `json:"temperature" yaml:"temperature"`
	TopP             float64 `json:"top_p,omitempty" yaml:"top_p,omitempty"`
	PresencePenalty  float64 `json:"presence_penalty,omitempty" yaml:"presence_penalty,omitempty"`
	FrequencyPenalty float64 `json:"frequency_penalty,omitempty" yaml:"frequency_penalty,omitempty"`
	RequestJSON      bool    `json:"request_json,omitempty" yaml:"request_json,omitempty"`
}

// SynthesizerConfig is the text-to-speech block.
type SynthesizerConfig struct {
	Provider       string                 `json:"provider" yaml:"provider"`
	ProviderConfig SynthesizerProviderCfg `json:"provider_config" yaml:"provider_config"`
	Stream         bool                   `json:"stream" yaml:"stream"`
	BufferSize     int                    `json:"buffer_size,omitempty" yaml:"buffer_size,omitempty"`
	AudioFormat    string                 `json:"audio_format,omitempty" yaml:"audio_format,omitempty"`
	CachingEnabled bool                   `json:"caching,omitempty" yaml:"caching,omitempty"`
}

// SynthesizerProviderCfg holds the provider-specific synthesizer fields. Engine only
// applies to polly; Model, VoiceID and the tuning values only apply to elevenlabs.
type SynthesizerProviderCfg struct {
	Voice           string   `json:"voice,omitempty" yaml:"voice,omitempty"`
	VoiceID         string   `json:"voice_id,omitempty" yaml:"voice_id,omitempty"`
	Model           string   `json:"model,omitempty" yaml:"model,omitempty"`
	Engine          string   `json:"engine,omitempty" yaml:"engine,omitempty"`
	SamplingRate    string   `json:"sampling_rate,omitempty" yaml:"sampling_rate,omitempty"`
	Language        string   `json:"language,omitempty" yaml:"language,omitempty"`
	Stability       *float64 `json:"stability,omitempty" yaml:"stability,omitempty"`
	SimilarityBoost *float64 `json:"similarity_boost,omitempty" yaml:"similarity_boost,omitempty"`
	Speed           *float64 `json:"speed,omitempty" yaml:"speed,omitempty"`
}

// TranscriberConfig is the speech-to-text block.
type TranscriberConfig struct {
	Provider     string `json:"provider" yaml:"provider"`
	Model        string `json:"model" yaml:"model"`
	Language     string `json:"language" yaml:"language"`
	Stream       bool   `json:"stream" yaml:"stream"`
	SamplingRate int    `json:"sampling_rate,omitempty" yaml:"sampling_rate,omitempty"`
	Encoding     string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Endpointing  int    `json:"endpointing,omitempty" yaml:"endpointing,omitempty"`
}

// IOConfig names the telephony provider and audio format on one side of a call.
type IOConfig struct {
	Provider string `json:"provider" yaml:"provider"`
	Format   string `json:"format,omitempty" yaml:"format,omitempty"`
}

// TaskConfig governs call flow. CallTerminate is the only required field.
type TaskConfig struct {
	HangupAfterSilence           int     `json:"hangup_after_silence" yaml:"hangup_after_silence"`
	IncrementalDelay             int     `json:"incremental_delay" yaml:"incremental_delay"`
	NumberOfWordsForInterruption int     `json:"number_of_words_for_interruption" yaml:"number_of_words_for_interruption"`
	InterruptionBackoffPeriod    int     `json:"interruption_backoff_period,omitempty" yaml:"interruption_backoff_period,omitempty"`
	HangupAfterLLMCall           bool    `json:"hangup_after_LLMCall" yaml:"hangup_after_LLMCall"`
	CallCancellationPrompt       *string `json:"call_cancellation_prompt,omitempty" yaml:"call_cancellation_prompt,omitempty"`
	Backchanneling               bool    `json:"backchanneling" yaml:"backchanneling"`
	BackchannelingMessageGap     int     `json:"backchanneling_message_gap,omitempty" yaml:"backchanneling_message_gap,omitempty"`
	BackchannelingStartDelay     int     `json:"backchanneling_start_delay,omitempty" yaml:"backchanneling_start_delay,omitempty"`
	AmbientNoise                 bool    `json:"ambient_noise" yaml:"ambient_noise"`
	AmbientNoiseTrack            string  `json:"ambient_noise_track,omitempty" yaml:"ambient_noise_track,omitempty"`
	CallTerminate                *int    `json:"call_terminate,omitempty" yaml:"call_terminate,omitempty"`
	Voicemail                    bool    `json:"voicemail" yaml:"voicemail"`
	OptimizeLatency              bool    `json:"optimize_latency,omitempty" yaml:"optimize_latency,omitempty"`
}

// AssistantPayload is the body of create and update calls.
type AssistantPayload struct {
	UserID            string            `json:"userId"`
	AgentName         string            `json:"agentName"`
	AgentType         AgentType         `json:"agentType"`
	WelcomeMessage    string            `json:"welcomeMessage"`
	SystemPrompt      string            `json:"systemPrompt"`
	LLMConfig         LLMConfig         `json:"llmConfig"`
	SynthesizerConfig SynthesizerConfig `json:"synthesizerConfig"`
	TranscriberConfig TranscriberConfig `json:"transcriberConfig"`
	InputConfig       IOConfig          `json:"inputConfig"`
	OutputConfig      IOConfig          `json:"outputConfig"`
	TaskConfig        TaskConfig        `json:"taskConfig"`
}

// StatusRequest changes an assistant's status.
type StatusRequest struct {
	Status AssistantStatus `json:"status"`
}

// VoiceMode selects where the assistant's voice comes from.
type VoiceMode string

const (
	// VoiceModeManual picks a voice from the static provider library.
	VoiceModeManual VoiceMode = "manual"
	// VoiceModeAssigned uses one of the owner's pre-assigned voices.
	VoiceModeAssigned VoiceMode = "assigned"
)

// AssistantDraft is the composite object the configuration wizard edits.
type AssistantDraft struct {
	AssistantID       string            `json:"assistantId,omitempty" yaml:"assistantId,omitempty"`
	UserIDs           []string          `json:"userIds" yaml:"userIds"`
	AgentName         string            `json:"agentName" yaml:"agentName"`
	AgentType         AgentType         `json:"agentType" yaml:"agentType"`
	WelcomeMessage    string            `json:"welcomeMessage" yaml:"welcomeMessage"`
	SystemPrompt      string            `json:"systemPrompt" yaml:"systemPrompt"`
	LLMConfig         LLMConfig         `json:"llmConfig" yaml:"llm"`
	VoiceMode         VoiceMode         `json:"voiceMode" yaml:"voiceMode"`
	VoiceName         string            `json:"voiceName,omitempty" yaml:"voiceName,omitempty"`
	VoiceID           string            `json:"voiceId,omitempty" yaml:"voiceId,omitempty"`
	AssignedVoiceID   string            `json:"assignedVoiceId,omitempty" yaml:"assignedVoiceId,omitempty"`
	SynthesizerConfig SynthesizerConfig `json:"synthesizerConfig" yaml:"synthesizer"`
	TranscriberConfig TranscriberConfig `json:"transcriberConfig" yaml:"transcriber"`
	InputConfig       IOConfig          `json:"inputConfig" yaml:"input"`
	OutputConfig      IOConfig          `json:"outputConfig" yaml:"output"`
	TaskConfig        TaskConfig        `json:"taskConfig" yaml:"task"`
}

// Payload builds the create/update body for one owner.
func (d AssistantDraft) Payload(userID string) AssistantPayload {
	return AssistantPayload{
		UserID:            userID,
		AgentName:         d.AgentName,
		AgentType:         d.AgentType,
		WelcomeMessage:    d.WelcomeMessage,
		SystemPrompt:      d.SystemPrompt,
		LLMConfig:         d.LLMConfig,
		SynthesizerConfig: d.SynthesizerConfig,
		TranscriberConfig: d.TranscriberConfig,
		InputConfig:       d.InputConfig,
		OutputConfig:      d.OutputConfig,
		TaskConfig:        d.TaskConfig,
	}
}

// Value implements driver.Valuer so drafts can be stored as JSONB.
func (d AssistantDraft) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner for AssistantDraft
func (d *AssistantDraft) Scan(value interface{}) error {
	if value == nil {
		*d = AssistantDraft{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into AssistantDraft", value)
	}

	return json.Unmarshal(bytes, d)
}
