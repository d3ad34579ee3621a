package models

import (
	"encoding/json"
	"fmt"
)

// EmbeddingProviderType is the JSON discriminator for embedding providers.
type EmbeddingProviderType string

const (
	EmbeddingOpenAI      EmbeddingProviderType = "openai"
	EmbeddingOllama      EmbeddingProviderType = "ollama"
	EmbeddingHuggingFace EmbeddingProviderType = "huggingface"
)

// EmbeddingProvider configures which provider a transform node's embedding
// processor calls. Carried opaquely by the core.
type EmbeddingProvider interface {
	ProviderType() EmbeddingProviderType
}

// OpenAIEmbedding uses the OpenAI embeddings API. The API key is resolved from
// the environment variable named by APIKeyEnv, never stored in the definition.
type OpenAIEmbedding struct {
	Model      string `json:"model"                validate:"required"`
	APIKeyEnv  string `json:"api_key_env,omitempty"`
	Dimensions int    `json:"dimensions,omitempty" validate:"min=0"`
}

func (OpenAIEmbedding) ProviderType() EmbeddingProviderType { return EmbeddingOpenAI }

// OllamaEmbedding uses a local or remote Ollama instance.
type OllamaEmbedding struct {
	Model   string `json:"model"              validate:"required"`
	BaseURL string `json:"base_url,omitempty" validate:"omitempty,url"`
}

func (OllamaEmbedding) ProviderType() EmbeddingProviderType { return EmbeddingOllama }

// HuggingFaceEmbedding uses the Hugging Face inference API.
type HuggingFaceEmbedding struct {
	Model string `json:"model" validate:"required"`
}

func (HuggingFaceEmbedding) ProviderType() EmbeddingProviderType { return EmbeddingHuggingFace }

// MarshalEmbeddingProvider serializes a provider to its tagged JSON envelope
// with the "type" discriminator.
func MarshalEmbeddingProvider(p EmbeddingProvider) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("cannot marshal nil embedding provider")
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}

	tag, err := json.Marshal(p.ProviderType())
	if err != nil {
		return nil, err
	}

	fields["type"] = tag

	return json.Marshal(fields)
}

// UnmarshalEmbeddingProvider parses a tagged JSON envelope back into the
// matching provider variant.
func UnmarshalEmbeddingProvider(data []byte) (EmbeddingProvider, error) {
	var envelope struct {
		Type EmbeddingProviderType `json:"type"`
	}

	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}

	switch envelope.Type {
	case EmbeddingOpenAI:
		var p OpenAIEmbedding
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}

		return p, nil
	case EmbeddingOllama:
		var p OllamaEmbedding
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}

		return p, nil
	case EmbeddingHuggingFace:
		var p HuggingFaceEmbedding
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}

		return p, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider type %q", envelope.Type)
	}
}
