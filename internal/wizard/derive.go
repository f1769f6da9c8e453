package wizard

import (
	"strings"

	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
)

// Synthesizer providers.
const (
	ProviderPolly      = "polly"
	ProviderElevenLabs = "elevenlabs"
)

// Values the premium provider requires, and the default provider's counterparts.
const (
	ElevenLabsModel        = "eleven_turbo_v2_5"
	ElevenLabsSamplingRate = "16000"
	PollyEngine            = "neural"
	PollySamplingRate      = "8000"
)

// VendorVoicePrefixes are stripped from voice ids before they are stored.
var VendorVoicePrefixes = []string{"elevenlabs-", "11labs-", "elevenlabs:"}

// Clone deep-copies a draft. Should copier fail, the slices and pointers of
// the result are copied by hand so the clone still shares nothing with d.
func Clone(d domain.AssistantDraft) domain.AssistantDraft {
	var out domain.AssistantDraft
	if err := copier.CopyWithOption(&out, &d, copier.Option{DeepCopy: true}); err != nil {
		logger.Base().Error("failed to deep-copy assistant draft", zap.Error(err))
		return shallowClone(d)
	}
	return out
}

func shallowClone(d domain.AssistantDraft) domain.AssistantDraft {
	out := d
	out.UserIDs = append([]string(nil), d.UserIDs...)
	pc := &out.SynthesizerConfig.ProviderConfig
	pc.Stability = copyFloat(pc.Stability)
	pc.SimilarityBoost = copyFloat(pc.SimilarityBoost)
	pc.Speed = copyFloat(pc.Speed)
	if t := d.TaskConfig.CallTerminate; t != nil {
		v := *t
		out.TaskConfig.CallTerminate = &v
	}
	if p := d.TaskConfig.CallCancellationPrompt; p != nil {
		v := *p
		out.TaskConfig.CallCancellationPrompt = &v
	}
	return out
}

// NormalizeVoiceID trims whitespace and one known vendor prefix.
func NormalizeVoiceID(id string) string {
	id = strings.TrimSpace(id)
	lower := strings.ToLower(id)
	for _, p := range VendorVoicePrefixes {
		if strings.HasPrefix(lower, p) {
			return id[len(p):]
		}
	}
	return id
}

func clearVoice(d *domain.AssistantDraft) {
	d.VoiceName = ""
	d.VoiceID = ""
	d.AssignedVoiceID = ""
	pc := &d.SynthesizerConfig.ProviderConfig
	pc.Voice = ""
	pc.VoiceID = ""
	pc.Stability = nil
	pc.SimilarityBoost = nil
	pc.Speed = nil
}

// SetVoiceMode switches between picking from the voice library and using one
// of the owner's assigned voices. The voice fields of the previous mode are
// cleared; switching to the current mode changes nothing.
func SetVoiceMode(d domain.AssistantDraft, mode domain.VoiceMode) domain.AssistantDraft {
	next := Clone(d)
	if next.VoiceMode == mode {
		return next
	}
	clearVoice(&next)
	next.VoiceMode = mode
	return next
}

// SetSynthesizerProvider switches the synthesizer provider, filling in the
// fixed values the new provider needs and dropping fields that only the old
// one understood. A voice belongs to its provider, so an actual switch also
// clears the selected voice; the voice mode is kept.
func SetSynthesizerProvider(d domain.AssistantDraft, provider string) domain.AssistantDraft {
	next := Clone(d)
	provider = strings.ToLower(strings.TrimSpace(provider))
	if prev := next.SynthesizerConfig.Provider; prev != "" && !strings.EqualFold(prev, provider) {
		clearVoice(&next)
	}
	next.SynthesizerConfig.Provider = provider
	pc := &next.SynthesizerConfig.ProviderConfig

	switch provider {
	case ProviderElevenLabs:
		pc.Model = ElevenLabsModel
		pc.SamplingRate = ElevenLabsSamplingRate
		pc.Engine = ""
	case ProviderPolly:
		pc.Engine = PollyEngine
		pc.SamplingRate = PollySamplingRate
		pc.Model = ""
		pc.VoiceID = ""
		pc.Stability = nil
		pc.SimilarityBoost = nil
		pc.Speed = nil
	}
	return next
}

// SelectVoice picks a catalog voice in manual mode.
func SelectVoice(d domain.AssistantDraft, v domain.Voice) domain.AssistantDraft {
	next := SetVoiceMode(d, domain.VoiceModeManual)
	if v.Provider != "" && !strings.EqualFold(v.Provider, next.SynthesizerConfig.Provider) {
		next = SetSynthesizerProvider(next, v.Provider)
	}
	applyVoice(&next, v.Name, v.ProviderVoiceID(), v.Language)

	if next.SynthesizerConfig.Provider == ProviderElevenLabs {
		pc := &next.SynthesizerConfig.ProviderConfig
		pc.Stability = copyFloat(v.Stability)
		pc.SimilarityBoost = copyFloat(v.SimilarityBoost)
		pc.Speed = copyFloat(v.Speed)
	}
	return next
}

// SelectAssignedVoice picks one of the owner's assigned voices.
func SelectAssignedVoice(d domain.AssistantDraft, a domain.VoiceAssignment) domain.AssistantDraft {
	next := SetVoiceMode(d, domain.VoiceModeAssigned)
	if a.VoiceProvider != "" && !strings.EqualFold(a.VoiceProvider, next.SynthesizerConfig.Provider) {
		next = SetSynthesizerProvider(next, a.VoiceProvider)
	}
	applyVoice(&next, a.VoiceName, a.VoiceID, "")
	next.AssignedVoiceID = a.ID
	return next
}

func applyVoice(d *domain.AssistantDraft, name, id, language string) {
	id = NormalizeVoiceID(id)
	d.VoiceName = name
	d.VoiceID = id
	pc := &d.SynthesizerConfig.ProviderConfig
	pc.Voice = name
	if d.SynthesizerConfig.Provider == ProviderPolly {
		pc.VoiceID = ""
	} else {
		pc.VoiceID = id
	}
	if language != "" {
		pc.Language = language
	}
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
