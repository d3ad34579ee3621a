package routing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpipe/docpipe/pkg/models"
)

func compile(t *testing.T, definition models.SwitchDefinition) *CompiledSwitch {
	t.Helper()

	compiled, err := Compile(definition)
	require.NoError(t, err)

	return compiled
}

func TestEvaluate_FirstMatchWins(t *testing.T) {
	// The blob matches both branches; declaration order decides.
	compiled := compile(t, models.SwitchDefinition{
		Branches: []models.SwitchBranch{
			{Condition: models.FileExtensionCondition{Extension: "pdf"}, Target: "p1"},
			{Condition: models.ContentTypeCondition{Category: models.CategoryDocument}, Target: "p2"},
		},
		Default: "p3",
	})

	target, ok := compiled.Evaluate(models.Blob{Path: "report.pdf", ContentType: "application/pdf"})
	require.True(t, ok)
	assert.Equal(t, "p1", target)
}

func TestEvaluate_FallsBackToDefault(t *testing.T) {
	compiled := compile(t, models.SwitchDefinition{
		Branches: []models.SwitchBranch{
			{Condition: models.ContentTypeCondition{Category: models.CategoryImage}, Target: "vision"},
		},
		Default: "catch-all",
	})

	target, ok := compiled.Evaluate(models.Blob{Path: "notes.txt", ContentType: "text/plain"})
	require.True(t, ok)
	assert.Equal(t, "catch-all", target)
}

func TestEvaluate_NoMatchNoDefault(t *testing.T) {
	compiled := compile(t, models.SwitchDefinition{
		Branches: []models.SwitchBranch{
			{Condition: models.ContentTypeCondition{Category: models.CategoryImage}, Target: "vision"},
		},
	})

	target, ok := compiled.Evaluate(models.Blob{Path: "notes.txt", ContentType: "text/plain"})
	assert.False(t, ok)
	assert.Empty(t, target)
}

func TestEvaluate_AlwaysCondition(t *testing.T) {
	compiled := compile(t, models.SwitchDefinition{
		Branches: []models.SwitchBranch{
			{Condition: models.AlwaysCondition{}, Target: "everything"},
		},
	})

	for _, data := range []models.DataValue{
		models.Blob{Path: "a.bin"},
		models.Record{Columns: map[string]any{"id": 1}},
	} {
		target, ok := compiled.Evaluate(data)
		require.True(t, ok)
		assert.Equal(t, "everything", target)
	}
}

func TestEvaluate_FileSizeThresholds(t *testing.T) {
	compiled := compile(t, models.SwitchDefinition{
		Branches: []models.SwitchBranch{
			{Condition: models.FileSizeAboveCondition{Threshold: 100}, Target: "big"},
			{Condition: models.FileSizeBelowCondition{Threshold: 100}, Target: "small"},
		},
		Default: "exact",
	})

	target, _ := compiled.Evaluate(models.Blob{Size: 101})
	assert.Equal(t, "big", target)

	target, _ = compiled.Evaluate(models.Blob{Size: 99})
	assert.Equal(t, "small", target)

	// Comparison is strict in both directions.
	target, _ = compiled.Evaluate(models.Blob{Size: 100})
	assert.Equal(t, "exact", target)

	// In-memory bytes win over the declared size.
	target, _ = compiled.Evaluate(models.Blob{Size: 1, Data: make([]byte, 200)})
	assert.Equal(t, "big", target)

	// Non-blob data never matches size conditions.
	target, _ = compiled.Evaluate(models.Record{Columns: map[string]any{"n": 1}})
	assert.Equal(t, "exact", target)
}

func TestEvaluate_MetadataConditions(t *testing.T) {
	compiled := compile(t, models.SwitchDefinition{
		Branches: []models.SwitchBranch{
			{Condition: models.MetadataEqualsCondition{Key: "source", Value: "scanner"}, Target: "scanned"},
			{Condition: models.HasMetadataCondition{Key: "source"}, Target: "tagged"},
		},
		Default: "untagged",
	})

	target, _ := compiled.Evaluate(models.Blob{Metadata: map[string]string{"source": "scanner"}})
	assert.Equal(t, "scanned", target)

	target, _ = compiled.Evaluate(models.Blob{Metadata: map[string]string{"source": "upload"}})
	assert.Equal(t, "tagged", target)

	target, _ = compiled.Evaluate(models.Blob{})
	assert.Equal(t, "untagged", target)

	// has_metadata also inspects record columns; metadata_equals does not.
	target, _ = compiled.Evaluate(models.Record{Columns: map[string]any{"source": "scanner"}})
	assert.Equal(t, "tagged", target)
}

func TestEvaluate_FileNameMatchTypes(t *testing.T) {
	testCases := []struct {
		name      string
		condition models.FileNameMatchesCondition
		path      string
		matched   bool
	}{
		{"glob", models.FileNameMatchesCondition{Pattern: "*.pdf", MatchType: models.MatchGlob}, "report.pdf", true},
		{"glob default", models.FileNameMatchesCondition{Pattern: "invoices/*.pdf"}, "invoices/2024.pdf", true},
		{"regex", models.FileNameMatchesCondition{Pattern: `^scan_\d+\.tiff$`, MatchType: models.MatchRegex}, "scan_042.tiff", true},
		{"regex no match", models.FileNameMatchesCondition{Pattern: `^scan_\d+\.tiff$`, MatchType: models.MatchRegex}, "scan_x.tiff", false},
		{"exact", models.FileNameMatchesCondition{Pattern: "README.md", MatchType: models.MatchExact}, "README.md", true},
		{"exact case-sensitive", models.FileNameMatchesCondition{Pattern: "README.md", MatchType: models.MatchExact}, "readme.md", false},
		{"contains", models.FileNameMatchesCondition{Pattern: "Invoice", MatchType: models.MatchContains}, "2024_invoice_final.pdf", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			compiled := compile(t, models.SwitchDefinition{
				Branches: []models.SwitchBranch{{Condition: tc.condition, Target: "hit"}},
			})

			target, ok := compiled.Evaluate(models.Blob{Path: tc.path})
			if tc.matched {
				require.True(t, ok)
				assert.Equal(t, "hit", target)
			} else {
				assert.False(t, ok)
			}
		})
	}
}

func TestCompile_InvalidRegex(t *testing.T) {
	_, err := Compile(models.SwitchDefinition{
		Branches: []models.SwitchBranch{
			{Condition: models.FileNameMatchesCondition{Pattern: "([", MatchType: models.MatchRegex}, Target: "x"},
		},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file name regex")
}

func TestEvaluate_FileExtension(t *testing.T) {
	compiled := compile(t, models.SwitchDefinition{
		Branches: []models.SwitchBranch{
			{Condition: models.FileExtensionCondition{Extension: "CSV"}, Target: "tabular"},
		},
	})

	target, ok := compiled.Evaluate(models.Blob{Path: "export.csv"})
	require.True(t, ok)
	assert.Equal(t, "tabular", target)

	_, ok = compiled.Evaluate(models.Blob{Path: "no-extension"})
	assert.False(t, ok)
}

func TestEvaluate_StubbedKindsNeverMatch(t *testing.T) {
	compiled := compile(t, models.SwitchDefinition{
		Branches: []models.SwitchBranch{
			{Condition: models.PageCountAboveCondition{Pages: 1}, Target: "long"},
			{Condition: models.DurationAboveCondition{Seconds: 1}, Target: "long-audio"},
			{Condition: models.LanguageCondition{Code: "en"}, Target: "english"},
			{Condition: models.DateNewerThanCondition{Date: time.Unix(0, 0)}, Target: "recent"},
		},
		Default: "fallthrough",
	})

	target, ok := compiled.Evaluate(models.Blob{
		Path:     "anything.pdf",
		Metadata: map[string]string{"pages": "500", "language": "en"},
	})
	require.True(t, ok)
	assert.Equal(t, "fallthrough", target)
}

func TestEvaluate_ConcurrentReads(t *testing.T) {
	compiled := compile(t, models.SwitchDefinition{
		Branches: []models.SwitchBranch{
			{Condition: models.FileExtensionCondition{Extension: "pdf"}, Target: "pdf"},
		},
		Default: "rest",
	})

	done := make(chan struct{})

	for range 8 {
		go func() {
			defer func() { done <- struct{}{} }()

			for range 1000 {
				target, ok := compiled.Evaluate(models.Blob{Path: "doc.pdf"})
				if !ok || target != "pdf" {
					t.Error("unexpected evaluation result under concurrency")

					return
				}
			}
		}()
	}

	for range 8 {
		<-done
	}
}
