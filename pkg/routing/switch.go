package routing

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/docpipe/docpipe/pkg/models"
)

// CompiledSwitch is the executable form of a switch definition: ordered
// branches, an optional default target, and any regexes pre-compiled. It is
// immutable after compilation, owns no external resources, and is safe for
// concurrent evaluation as long as compilation happened-before.
type CompiledSwitch struct {
	branches      []compiledBranch
	defaultTarget string
}

type compiledBranch struct {
	condition models.SwitchCondition
	target    string
	regex     *regexp.Regexp // set only for file_name_matches with match_type regex
}

// Stubbed condition kinds: declared in the schema, always evaluate to false
// until the upstream OCR/transcription/date-extraction metadata they need is
// wired through. Compile warns once per affected branch so unrouted data is
// explainable downstream.
var stubbedKinds = map[models.ConditionKind]struct{}{
	models.ConditionPageCountAbove: {},
	models.ConditionDurationAbove:  {},
	models.ConditionLanguage:       {},
	models.ConditionDateNewerThan:  {},
}

// Compile turns a declarative switch definition into an executable router.
// It is pure apart from the one-time warning log for stubbed condition kinds;
// the only failure mode is an invalid regex pattern.
func Compile(definition models.SwitchDefinition) (*CompiledSwitch, error) {
	compiled := &CompiledSwitch{
		branches:      make([]compiledBranch, 0, len(definition.Branches)),
		defaultTarget: definition.Default,
	}

	for i, branch := range definition.Branches {
		if branch.Condition == nil {
			return nil, fmt.Errorf("branch %d has no condition", i)
		}

		cb := compiledBranch{condition: branch.Condition, target: branch.Target}

		if match, ok := branch.Condition.(models.FileNameMatchesCondition); ok && match.MatchType == models.MatchRegex {
			regex, err := regexp.Compile(match.Pattern)
			if err != nil {
				return nil, fmt.Errorf("branch %d: invalid file name regex %q: %w", i, match.Pattern, err)
			}

			cb.regex = regex
		}

		if _, stubbed := stubbedKinds[branch.Condition.ConditionKind()]; stubbed {
			slog.Warn("switch branch uses a condition kind that is not evaluated yet and will never match",
				"kind", branch.Condition.ConditionKind(),
				"branch", i,
				"target", branch.Target)
		}

		compiled.branches = append(compiled.branches, cb)
	}

	return compiled, nil
}

// DefaultTarget returns the configured fallback target, if any.
func (s *CompiledSwitch) DefaultTarget() (string, bool) {
	return s.defaultTarget, s.defaultTarget != ""
}

// Evaluate walks the branches in declaration order and returns the target of
// the first branch whose condition matches the data. When nothing matches it
// falls back to the default target; with no default it returns false, and the
// caller decides what unrouted data means (drop, dead-letter, pipeline error).
func (s *CompiledSwitch) Evaluate(data models.DataValue) (string, bool) {
	for _, branch := range s.branches {
		if branch.matches(data) {
			return branch.target, true
		}
	}

	if s.defaultTarget != "" {
		return s.defaultTarget, true
	}

	return "", false
}

func (b compiledBranch) matches(data models.DataValue) bool {
	switch condition := b.condition.(type) {
	case models.AlwaysCondition:
		return true
	case models.ContentTypeCondition:
		blob, ok := data.(models.Blob)
		if !ok {
			return false
		}

		category, ok := CategorizeContentType(blob.ContentType)

		return ok && category == condition.Category
	case models.FileSizeAboveCondition:
		blob, ok := data.(models.Blob)

		return ok && blob.ByteSize() > condition.Threshold
	case models.FileSizeBelowCondition:
		blob, ok := data.(models.Blob)

		return ok && blob.ByteSize() < condition.Threshold
	case models.HasMetadataCondition:
		switch v := data.(type) {
		case models.Blob:
			_, ok := v.Metadata[condition.Key]

			return ok
		case models.Record:
			_, ok := v.Columns[condition.Key]

			return ok
		default:
			return false
		}
	case models.MetadataEqualsCondition:
		blob, ok := data.(models.Blob)
		if !ok {
			return false
		}

		value, ok := blob.Metadata[condition.Key]

		return ok && value == condition.Value
	case models.FileNameMatchesCondition:
		blob, ok := data.(models.Blob)
		if !ok {
			return false
		}

		return b.matchesFileName(condition, blob.Path)
	case models.FileExtensionCondition:
		blob, ok := data.(models.Blob)
		if !ok {
			return false
		}

		idx := strings.LastIndexByte(blob.Path, '.')
		if idx < 0 {
			return false
		}

		return strings.EqualFold(blob.Path[idx+1:], condition.Extension)
	case models.PageCountAboveCondition,
		models.DurationAboveCondition,
		models.LanguageCondition,
		models.DateNewerThanCondition:
		// Not evaluated yet. Compile already warned; a false here is
		// indistinguishable from a legitimate non-match.
		return false
	default:
		return false
	}
}

func (b compiledBranch) matchesFileName(condition models.FileNameMatchesCondition, path string) bool {
	switch condition.MatchType {
	case models.MatchRegex:
		return b.regex != nil && b.regex.MatchString(path)
	case models.MatchExact:
		return path == condition.Pattern
	case models.MatchContains:
		return strings.Contains(strings.ToLower(path), strings.ToLower(condition.Pattern))
	case models.MatchGlob:
		return GlobMatch(condition.Pattern, path)
	default:
		// Absent match_type means glob, the common authoring case.
		return GlobMatch(condition.Pattern, path)
	}
}
