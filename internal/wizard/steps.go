package wizard

import (
	"fmt"
	"strings"

	"github.com/ClareAI/astra-voice-admin/internal/domain"
)

// Step is a 1-based wizard step.
type Step int

const (
	StepBasics Step = iota + 1
	StepLLM
	StepVoice
	StepTranscriber
	StepTask
)

// StepCount is the number of wizard steps.
const StepCount = int(StepTask)

func (s Step) String() string {
	switch s {
	case StepBasics:
		return "Basics"
	case StepLLM:
		return "LLM"
	case StepVoice:
		return "Voice"
	case StepTranscriber:
		return "Transcriber & I/O"
	case StepTask:
		return "Task"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// Valid reports whether s is one of the five steps.
func (s Step) Valid() bool {
	return s >= StepBasics && s <= StepTask
}

// StepError names the step and the first missing field that failed validation.
type StepError struct {
	Step    Step
	Field   string
	Message string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %s", int(e.Step), e.Step, e.Message)
}

type check struct {
	field   string
	message string
	ok      func(d *domain.AssistantDraft) bool
}

func filled(s string) bool { return strings.TrimSpace(s) != "" }

var rules = map[Step][]check{
	StepBasics: {
		{"userIds", "select at least one user", func(d *domain.AssistantDraft) bool { return len(nonEmpty(d.UserIDs)) > 0 }},
		{"agentName", "agent name is required", func(d *domain.AssistantDraft) bool { return filled(d.AgentName) }},
		{"agentType", "agent type is required", func(d *domain.AssistantDraft) bool { return filled(string(d.AgentType)) }},
		{"welcomeMessage", "welcome message is required", func(d *domain.AssistantDraft) bool { return filled(d.WelcomeMessage) }},
		{"systemPrompt", "system prompt is required", func(d *domain.AssistantDraft) bool { return filled(d.SystemPrompt) }},
	},
	StepLLM: {
		{"llmConfig.model", "LLM model is required", func(d *domain.AssistantDraft) bool { return filled(d.LLMConfig.Model) }},
	},
	StepVoice: {
		{"synthesizerConfig.provider", "synthesizer provider is required", func(d *domain.AssistantDraft) bool { return filled(d.SynthesizerConfig.Provider) }},
		{"voice", "voice is required", func(d *domain.AssistantDraft) bool { return filled(SelectedVoice(d)) }},
		{"synthesizerConfig.provider_config.language", "voice language is required", func(d *domain.AssistantDraft) bool {
			return filled(d.SynthesizerConfig.ProviderConfig.Language)
		}},
	},
	StepTranscriber: {
		{"transcriberConfig.provider", "transcriber provider is required", func(d *domain.AssistantDraft) bool { return filled(d.TranscriberConfig.Provider) }},
		{"transcriberConfig.model", "transcriber model is required", func(d *domain.AssistantDraft) bool { return filled(d.TranscriberConfig.Model) }},
		{"transcriberConfig.language", "transcriber language is required", func(d *domain.AssistantDraft) bool { return filled(d.TranscriberConfig.Language) }},
		{"inputConfig.provider", "input provider is required", func(d *domain.AssistantDraft) bool { return filled(d.InputConfig.Provider) }},
		{"outputConfig.provider", "output provider is required", func(d *domain.AssistantDraft) bool { return filled(d.OutputConfig.Provider) }},
	},
	StepTask: {
		{"taskConfig.call_terminate", "call termination duration is required", func(d *domain.AssistantDraft) bool {
			return d.TaskConfig.CallTerminate != nil && *d.TaskConfig.CallTerminate > 0
		}},
	},
}

// ValidateStep checks the required fields of one step and returns a
// *StepError for the first one missing.
func ValidateStep(d *domain.AssistantDraft, step Step) error {
	if !step.Valid() {
		return fmt.Errorf("%w: unknown wizard step %d", domain.ErrInvalidInput, int(step))
	}
	for _, c := range rules[step] {
		if !c.ok(d) {
			return &StepError{Step: step, Field: c.field, Message: c.message}
		}
	}
	return nil
}

// ValidateAll runs every step in order and returns the first failure.
func ValidateAll(d *domain.AssistantDraft) error {
	for s := StepBasics; s <= StepTask; s++ {
		if err := ValidateStep(d, s); err != nil {
			return err
		}
	}
	return nil
}

// SelectedVoice is the voice the draft will speak with: the top-level
// convenience name, else the provider config's voice.
func SelectedVoice(d *domain.AssistantDraft) string {
	if filled(d.VoiceName) {
		return d.VoiceName
	}
	return d.SynthesizerConfig.ProviderConfig.Voice
}

func nonEmpty(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
