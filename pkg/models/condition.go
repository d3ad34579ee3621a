package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ConditionKind is the JSON discriminator for switch conditions.
type ConditionKind string

const (
	ConditionAlways          ConditionKind = "always"
	ConditionContentType     ConditionKind = "content_type"
	ConditionFileSizeAbove   ConditionKind = "file_size_above"
	ConditionFileSizeBelow   ConditionKind = "file_size_below"
	ConditionHasMetadata     ConditionKind = "has_metadata"
	ConditionMetadataEquals  ConditionKind = "metadata_equals"
	ConditionFileNameMatches ConditionKind = "file_name_matches"
	ConditionFileExtension   ConditionKind = "file_extension"
	ConditionPageCountAbove  ConditionKind = "page_count_above"
	ConditionDurationAbove   ConditionKind = "duration_above"
	ConditionLanguage        ConditionKind = "language"
	ConditionDateNewerThan   ConditionKind = "date_newer_than"
)

// ContentCategory is a coarse classification of a blob's declared content type.
type ContentCategory string

const (
	CategoryImage        ContentCategory = "image"
	CategoryDocument     ContentCategory = "document"
	CategoryText         ContentCategory = "text"
	CategoryAudio        ContentCategory = "audio"
	CategoryVideo        ContentCategory = "video"
	CategorySpreadsheet  ContentCategory = "spreadsheet"
	CategoryPresentation ContentCategory = "presentation"
	CategoryArchive      ContentCategory = "archive"
	CategoryCode         ContentCategory = "code"
)

// MatchType selects how a file name pattern is interpreted.
type MatchType string

const (
	MatchGlob     MatchType = "glob"
	MatchRegex    MatchType = "regex"
	MatchExact    MatchType = "exact"
	MatchContains MatchType = "contains"
)

// SwitchCondition is the closed union of routing predicates a switch branch can
// carry. The set is not extensible at runtime; evaluation lives in the routing
// package and type-switches exhaustively over these variants.
type SwitchCondition interface {
	ConditionKind() ConditionKind
}

// AlwaysCondition matches unconditionally; used for catch-all terminal branches.
type AlwaysCondition struct{}

func (AlwaysCondition) ConditionKind() ConditionKind { return ConditionAlways }

// ContentTypeCondition matches blobs whose declared content type falls into the
// given category.
type ContentTypeCondition struct {
	Category ContentCategory `json:"category" validate:"required"`
}

func (ContentTypeCondition) ConditionKind() ConditionKind { return ConditionContentType }

// FileSizeAboveCondition matches blobs strictly larger than Threshold bytes.
type FileSizeAboveCondition struct {
	Threshold int64 `json:"threshold" validate:"min=0"`
}

func (FileSizeAboveCondition) ConditionKind() ConditionKind { return ConditionFileSizeAbove }

// FileSizeBelowCondition matches blobs strictly smaller than Threshold bytes.
type FileSizeBelowCondition struct {
	Threshold int64 `json:"threshold" validate:"min=0"`
}

func (FileSizeBelowCondition) ConditionKind() ConditionKind { return ConditionFileSizeBelow }

// HasMetadataCondition matches when the payload's metadata (blob metadata or
// record columns) contains Key, regardless of value.
type HasMetadataCondition struct {
	Key string `json:"key" validate:"required"`
}

func (HasMetadataCondition) ConditionKind() ConditionKind { return ConditionHasMetadata }

// MetadataEqualsCondition matches blobs whose metadata carries Key with exactly
// the given Value.
type MetadataEqualsCondition struct {
	Key   string `json:"key"   validate:"required"`
	Value string `json:"value"`
}

func (MetadataEqualsCondition) ConditionKind() ConditionKind { return ConditionMetadataEquals }

// FileNameMatchesCondition matches the blob's path against Pattern. MatchType
// defaults to glob when absent.
type FileNameMatchesCondition struct {
	Pattern   string    `json:"pattern" validate:"required"`
	MatchType MatchType `json:"match_type,omitempty"`
}

func (FileNameMatchesCondition) ConditionKind() ConditionKind { return ConditionFileNameMatches }

// FileExtensionCondition matches on the substring after the last dot of the
// blob's path, case-insensitively.
type FileExtensionCondition struct {
	Extension string `json:"extension" validate:"required"`
}

func (FileExtensionCondition) ConditionKind() ConditionKind { return ConditionFileExtension }

// PageCountAboveCondition is declared for routing on upstream OCR page counts.
// Evaluation is not wired yet; see the routing package.
type PageCountAboveCondition struct {
	Pages int `json:"pages" validate:"min=0"`
}

func (PageCountAboveCondition) ConditionKind() ConditionKind { return ConditionPageCountAbove }

// DurationAboveCondition is declared for routing on media duration produced by
// transcription stages. Evaluation is not wired yet; see the routing package.
type DurationAboveCondition struct {
	Seconds float64 `json:"seconds" validate:"min=0"`
}

func (DurationAboveCondition) ConditionKind() ConditionKind { return ConditionDurationAbove }

// LanguageCondition is declared for routing on detected language. Evaluation is
// not wired yet; see the routing package.
type LanguageCondition struct {
	Code          string  `json:"code"                     validate:"required"`
	MinConfidence float64 `json:"min_confidence,omitempty" validate:"min=0,max=1"`
}

func (LanguageCondition) ConditionKind() ConditionKind { return ConditionLanguage }

// DateNewerThanCondition is declared for routing on extracted file dates.
// Evaluation is not wired yet; see the routing package.
type DateNewerThanCondition struct {
	Date time.Time `json:"date" validate:"required"`
}

func (DateNewerThanCondition) ConditionKind() ConditionKind { return ConditionDateNewerThan }

// MarshalCondition serializes a condition to its tagged JSON envelope, with the
// variant's fields inlined next to the "kind" discriminator.
func MarshalCondition(c SwitchCondition) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("cannot marshal nil condition")
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}

	kind, err := json.Marshal(c.ConditionKind())
	if err != nil {
		return nil, err
	}

	fields["kind"] = kind

	return json.Marshal(fields)
}

// UnmarshalCondition parses a tagged JSON envelope back into the matching
// condition variant.
func UnmarshalCondition(data []byte) (SwitchCondition, error) {
	var envelope struct {
		Kind ConditionKind `json:"kind"`
	}

	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}

	decode := func(target SwitchCondition) (SwitchCondition, error) {
		if err := json.Unmarshal(data, target); err != nil {
			return nil, err
		}

		// Conditions are carried by value so branches stay immutable after
		// compilation.
		switch v := target.(type) {
		case *AlwaysCondition:
			return *v, nil
		case *ContentTypeCondition:
			return *v, nil
		case *FileSizeAboveCondition:
			return *v, nil
		case *FileSizeBelowCondition:
			return *v, nil
		case *HasMetadataCondition:
			return *v, nil
		case *MetadataEqualsCondition:
			return *v, nil
		case *FileNameMatchesCondition:
			return *v, nil
		case *FileExtensionCondition:
			return *v, nil
		case *PageCountAboveCondition:
			return *v, nil
		case *DurationAboveCondition:
			return *v, nil
		case *LanguageCondition:
			return *v, nil
		case *DateNewerThanCondition:
			return *v, nil
		default:
			return nil, fmt.Errorf("unhandled condition type %T", target)
		}
	}

	switch envelope.Kind {
	case ConditionAlways:
		return decode(&AlwaysCondition{})
	case ConditionContentType:
		return decode(&ContentTypeCondition{})
	case ConditionFileSizeAbove:
		return decode(&FileSizeAboveCondition{})
	case ConditionFileSizeBelow:
		return decode(&FileSizeBelowCondition{})
	case ConditionHasMetadata:
		return decode(&HasMetadataCondition{})
	case ConditionMetadataEquals:
		return decode(&MetadataEqualsCondition{})
	case ConditionFileNameMatches:
		return decode(&FileNameMatchesCondition{})
	case ConditionFileExtension:
		return decode(&FileExtensionCondition{})
	case ConditionPageCountAbove:
		return decode(&PageCountAboveCondition{})
	case ConditionDurationAbove:
		return decode(&DurationAboveCondition{})
	case ConditionLanguage:
		return decode(&LanguageCondition{})
	case ConditionDateNewerThan:
		return decode(&DateNewerThanCondition{})
	default:
		return nil, fmt.Errorf("unknown condition kind %q", envelope.Kind)
	}
}
