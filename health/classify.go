package health

import (
	"regexp"
	"strings"
)

// zipPattern matches standalone 5-digit US zip codes.
var zipPattern = regexp.MustCompile(`\b\d{5}\b`)

// categoryKeywords maps lowercase signal phrases to their category.
// Longer phrases are matched as substrings of the lowered input, so
// "air quality" matches "poor air quality readings".
var categoryKeywords = []struct {
	keyword  string
	category Category
}{
	{"outbreak", CategoryDiseaseOutbreak},
	{"flu", CategoryDiseaseOutbreak},
	{"infectious", CategoryDiseaseOutbreak},
	{"epidemic", CategoryDiseaseOutbreak},
	{"measles", CategoryDiseaseOutbreak},
	{"disease cluster", CategoryDiseaseOutbreak},

	{"pollution", CategoryEnvironmentalRisk},
	{"air quality", CategoryEnvironmentalRisk},
	{"water quality", CategoryEnvironmentalRisk},
	{"smog", CategoryEnvironmentalRisk},
	{"heatwave", CategoryEnvironmentalRisk},
	{"heat wave", CategoryEnvironmentalRisk},
	{"contamination", CategoryEnvironmentalRisk},

	{"uninsured", CategoryHealthcareAccess},
	{"underserved", CategoryHealthcareAccess},
	{"lack of clinics", CategoryHealthcareAccess},
	{"no clinics", CategoryHealthcareAccess},
	{"healthcare access", CategoryHealthcareAccess},
	{"clinic closure", CategoryHealthcareAccess},

	{"er surge", CategoryEmergingCrisis},
	{"emergency room surge", CategoryEmergingCrisis},
	{"public safety alert", CategoryEmergingCrisis},
	{"overdose", CategoryEmergingCrisis},
}

// ExtractZipCodes returns the distinct 5-digit zip codes mentioned in the
// text, in order of first appearance.
func ExtractZipCodes(text string) []string {
	seen := make(map[string]struct{})
	var zips []string
	for _, z := range zipPattern.FindAllString(text, -1) {
		if _, ok := seen[z]; ok {
			continue
		}
		seen[z] = struct{}{}
		zips = append(zips, z)
	}
	return zips
}

// Classify scans a free-text report for health issue signals and the zip
// codes mentioned alongside them. Each matched signal becomes one
// HealthEvent carrying every location found in the report; an input with
// no signals yields the empty analysis sentinel.
func Classify(text string) HealthAnalysis {
	lowered := strings.ToLower(text)
	locations := ExtractZipCodes(text)

	var analysis HealthAnalysis
	seen := make(map[Category]struct{})
	for _, entry := range categoryKeywords {
		if !strings.Contains(lowered, entry.keyword) {
			continue
		}
		if _, dup := seen[entry.category]; dup {
			continue
		}
		seen[entry.category] = struct{}{}
		analysis.HealthEvents = append(analysis.HealthEvents, HealthEvent{
			Issue:     entry.keyword,
			Category:  entry.category,
			Locations: locations,
		})
	}

	// Anything that mentions health terms without a known signal is still
	// worth surfacing as a general concern when locations are present.
	if analysis.IsEmpty() && len(locations) > 0 && strings.Contains(lowered, "health") {
		analysis.HealthEvents = append(analysis.HealthEvents, HealthEvent{
			Issue:     "general health concern",
			Category:  CategoryGeneralHealthConcern,
			Locations: locations,
		})
	}

	return analysis
}
