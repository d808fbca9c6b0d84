package health

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestClassify_Categories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want Category
	}{
		{"outbreak", "A flu outbreak was reported near 90210.", CategoryDiseaseOutbreak},
		{"air quality", "Residents complain about poor air quality downtown.", CategoryEnvironmentalRisk},
		{"heatwave", "The heatwave is straining cooling centers in 33101.", CategoryEnvironmentalRisk},
		{"uninsured", "Many uninsured families live in the 60614 area.", CategoryHealthcareAccess},
		{"er surge", "The hospital saw an ER surge over the weekend.", CategoryEmergingCrisis},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			analysis := Classify(tt.text)
			require.False(t, analysis.IsEmpty())
			assert.Equal(t, tt.want, analysis.HealthEvents[0].Category)
		})
	}
}

func TestClassify_EmptySentinel(t *testing.T) {
	t.Parallel()

	assert.True(t, Classify("The weather is lovely today.").IsEmpty())
	assert.True(t, Classify("").IsEmpty())
}

func TestClassify_GeneralHealthConcernFallback(t *testing.T) {
	t.Parallel()

	analysis := Classify("Residents of 90210 raised several health complaints.")
	require.Len(t, analysis.HealthEvents, 1)
	assert.Equal(t, CategoryGeneralHealthConcern, analysis.HealthEvents[0].Category)
	assert.Equal(t, []string{"90210"}, analysis.HealthEvents[0].Locations)
}

func TestClassify_MultipleIssuesShareLocations(t *testing.T) {
	t.Parallel()

	text := "A flu outbreak in 90210 and 90211, plus air quality concerns near the industrial park."
	analysis := Classify(text)
	require.Len(t, analysis.HealthEvents, 2)
	for _, ev := range analysis.HealthEvents {
		assert.Equal(t, []string{"90210", "90211"}, ev.Locations)
	}
}

func TestClassify_DeduplicatesCategory(t *testing.T) {
	t.Parallel()

	// Two outbreak signals collapse into a single event.
	analysis := Classify("flu outbreak and another outbreak")
	assert.Len(t, analysis.HealthEvents, 1)
}

func TestExtractZipCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"two zips", "issues in 90210 and 33101", []string{"90210", "33101"}},
		{"deduplicated", "90210, again 90210", []string{"90210"}},
		{"too long ignored", "the number 123456 is not a zip", nil},
		{"none", "no zips here", nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractZipCodes(tt.text))
		})
	}
}

func TestExtractZipCodes_AnyFiveDigits(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		zip := rapid.StringMatching(`[0-9]{5}`).Draw(t, "zip")
		text := fmt.Sprintf("report about problems near %s today", zip)
		got := ExtractZipCodes(text)
		if len(got) != 1 || got[0] != zip {
			t.Fatalf("expected [%s], got %v", zip, got)
		}
	})
}

func TestClassifyTool(t *testing.T) {
	t.Parallel()

	fn, meta := NewClassifyTool(nil)
	assert.Equal(t, "classify_health_report", meta.Schema.Name)

	raw, err := fn(context.Background(), json.RawMessage(`{"text":"flu outbreak in 90210"}`))
	require.NoError(t, err)

	var analysis HealthAnalysis
	require.NoError(t, json.Unmarshal(raw, &analysis))
	require.Len(t, analysis.HealthEvents, 1)
	assert.Equal(t, CategoryDiseaseOutbreak, analysis.HealthEvents[0].Category)

	_, err = fn(context.Background(), json.RawMessage(`{}`))
	assert.ErrorContains(t, err, "text is required")
}
