package voice

import (
	"context"
	"strings"

	"github.com/ClareAI/astra-voice-admin/internal/cache"
	"github.com/ClareAI/astra-voice-admin/internal/domain"
)

// API is the voice catalog surface of the admin API.
type API interface {
	ListVoices(ctx context.Context) ([]domain.Voice, error)
	GetVoice(ctx context.Context, id string) (*domain.Voice, error)
}

// VoiceService reads the provider voice catalog. The catalog is read-only here.
type VoiceService struct {
	api   API
	cache *cache.QueryCache
}

func NewVoiceService(api API, qc *cache.QueryCache) *VoiceService {
	return &VoiceService{api: api, cache: qc}
}

// Catalog returns every catalog voice.
func (s *VoiceService) Catalog(ctx context.Context) ([]domain.Voice, error) {
	return cache.Fetch(ctx, s.cache, cache.KeyVoices, s.api.ListVoices)
}

// ByProvider returns the catalog voices of one synthesizer provider.
func (s *VoiceService) ByProvider(ctx context.Context, provider string) ([]domain.Voice, error) {
	voices, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Voice, 0, len(voices))
	for _, v := range voices {
		if strings.EqualFold(v.Provider, provider) {
			out = append(out, v)
		}
	}
	return out, nil
}

// Get returns one voice, served from the cached catalog when it is loaded.
func (s *VoiceService) Get(ctx context.Context, id string) (*domain.Voice, error) {
	if voices, ok := cache.Get[[]domain.Voice](s.cache, cache.KeyVoices); ok {
		for _, v := range voices {
			if v.ID == id || v.VoiceID == id {
				v := v
				return &v, nil
			}
		}
	}
	v, err := cache.Fetch(ctx, s.cache, cache.VoiceKey(id), func(ctx context.Context) (domain.Voice, error) {
		v, err := s.api.GetVoice(ctx, id)
		if err != nil {
			return domain.Voice{}, err
		}
		return *v, nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}
