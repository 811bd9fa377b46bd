package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings domain.EmbeddingSettings
		wantErr  bool
	}{
		{
			name: "ollama",
			settings: domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama, Model: "nomic-embed-text", Dimensions: 768,
			},
		},
		{
			name: "openai",
			settings: domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI, Model: "text-embedding-3-small",
				APIKey: "sk-test", Dimensions: 1536,
			},
		},
		{
			name: "openai without key",
			settings: domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI, Model: "text-embedding-3-small", Dimensions: 1536,
			},
			wantErr: true,
		},
		{
			name:     "anthropic has no embedding API",
			settings: domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic},
			wantErr:  true,
		},
		{
			name:     "unknown provider",
			settings: domain.EmbeddingSettings{Provider: "mystery"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, svc)
			assert.Equal(t, tt.settings.Model, svc.ModelName())
			assert.Equal(t, tt.settings.Dimensions, svc.Dimensions())
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateGenerationService(t *testing.T) {
	tests := []struct {
		name     string
		settings domain.GenerationSettings
		wantErr  bool
	}{
		{
			name:     "ollama",
			settings: domain.GenerationSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"},
		},
		{
			name: "openai",
			settings: domain.GenerationSettings{
				Provider: domain.AIProviderOpenAI, Model: "gpt-4o-mini", APIKey: "sk-test",
			},
		},
		{
			name: "anthropic",
			settings: domain.GenerationSettings{
				Provider: domain.AIProviderAnthropic, Model: "claude-3-5-sonnet-latest", APIKey: "sk-ant",
			},
		},
		{
			name:     "anthropic without key",
			settings: domain.GenerationSettings{Provider: domain.AIProviderAnthropic},
			wantErr:  true,
		},
		{
			name:     "unknown provider",
			settings: domain.GenerationSettings{Provider: "mystery"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateGenerationService(tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, svc)
			assert.Equal(t, tt.settings.Model, svc.ModelName())
			assert.NoError(t, svc.Close())
		})
	}
}
