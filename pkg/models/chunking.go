package models

import (
	"encoding/json"
	"fmt"
)

// ChunkingStrategyType is the JSON discriminator for chunking strategies.
type ChunkingStrategyType string

const (
	ChunkingFixedSize ChunkingStrategyType = "fixed_size"
	ChunkingSentence  ChunkingStrategyType = "sentence"
	ChunkingRecursive ChunkingStrategyType = "recursive"
	ChunkingMarkdown  ChunkingStrategyType = "markdown"
)

// ChunkingStrategy configures how a transform node's processor splits extracted
// text into chunks. The core never interprets it; it is carried to the
// chunking processor verbatim.
type ChunkingStrategy interface {
	StrategyType() ChunkingStrategyType
}

// FixedSizeChunking splits text into windows of Size characters with Overlap
// characters shared between consecutive chunks.
type FixedSizeChunking struct {
	Size    int `json:"size"              validate:"min=1"`
	Overlap int `json:"overlap,omitempty" validate:"min=0"`
}

func (FixedSizeChunking) StrategyType() ChunkingStrategyType { return ChunkingFixedSize }

// SentenceChunking splits on sentence boundaries, at most MaxSentences per chunk.
type SentenceChunking struct {
	MaxSentences int `json:"max_sentences" validate:"min=1"`
}

func (SentenceChunking) StrategyType() ChunkingStrategyType { return ChunkingSentence }

// RecursiveChunking splits on the first separator that keeps chunks under
// ChunkSize, recursing with the next separator otherwise.
type RecursiveChunking struct {
	ChunkSize  int      `json:"chunk_size"           validate:"min=1"`
	Overlap    int      `json:"overlap,omitempty"    validate:"min=0"`
	Separators []string `json:"separators,omitempty"`
}

func (RecursiveChunking) StrategyType() ChunkingStrategyType { return ChunkingRecursive }

// MarkdownChunking splits on markdown headings, keeping sections intact up to
// MaxSectionSize characters.
type MarkdownChunking struct {
	MaxSectionSize int `json:"max_section_size,omitempty" validate:"min=0"`
}

func (MarkdownChunking) StrategyType() ChunkingStrategyType { return ChunkingMarkdown }

// MarshalChunkingStrategy serializes a strategy to its tagged JSON envelope
// with the "strategy" discriminator.
func MarshalChunkingStrategy(s ChunkingStrategy) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("cannot marshal nil chunking strategy")
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}

	tag, err := json.Marshal(s.StrategyType())
	if err != nil {
		return nil, err
	}

	fields["strategy"] = tag

	return json.Marshal(fields)
}

// UnmarshalChunkingStrategy parses a tagged JSON envelope back into the
// matching strategy variant.
func UnmarshalChunkingStrategy(data []byte) (ChunkingStrategy, error) {
	var envelope struct {
		Strategy ChunkingStrategyType `json:"strategy"`
	}

	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}

	switch envelope.Strategy {
	case ChunkingFixedSize:
		var s FixedSizeChunking
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}

		return s, nil
	case ChunkingSentence:
		var s SentenceChunking
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}

		return s, nil
	case ChunkingRecursive:
		var s RecursiveChunking
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}

		return s, nil
	case ChunkingMarkdown:
		var s MarkdownChunking
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}

		return s, nil
	default:
		return nil, fmt.Errorf("unknown chunking strategy %q", envelope.Strategy)
	}
}
