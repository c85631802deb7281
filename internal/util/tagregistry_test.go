package util

import (
	"strings"
	"testing"

	"github.com/suyashkumar/dicom/pkg/tag"
)

func TestGetTagByName_Valid(t *testing.T) {
	tests := []struct {
		name        string
		expectedTag tag.Tag
	}{
		// Patient level tags
		{"PatientName", tag.PatientName},
		{"PatientID", tag.PatientID},

		// Study level tags
		{"StudyInstanceUID", tag.StudyInstanceUID},
		{"StudyDescription", tag.StudyDescription},
		{"StudyDate", tag.StudyDate},
		{"StudyTime", tag.StudyTime},
		{"StationName", tag.StationName},
		{"InstitutionName", tag.InstitutionName},

		// Series level tags
		{"SeriesInstanceUID", tag.SeriesInstanceUID},
		{"SeriesDescription", tag.SeriesDescription},
		{"SeriesNumber", tag.SeriesNumber},
		{"SeriesDate", tag.SeriesDate},
		{"SeriesTime", tag.SeriesTime},
		{"Modality", tag.Modality},
		{"ProtocolName", tag.ProtocolName},
		{"SequenceName", tag.SequenceName},
		{"Manufacturer", tag.Manufacturer},
		{"ManufacturerModelName", tag.ManufacturerModelName},

		// Image level tags
		{"ImageType", tag.ImageType},
		{"InstanceNumber", tag.InstanceNumber},
		{"AcquisitionDate", tag.AcquisitionDate},
		{"AcquisitionTime", tag.AcquisitionTime},
		{"AcquisitionDateTime", tag.AcquisitionDateTime},
		{"EchoTime", tag.EchoTime},
		{"SliceLocation", tag.SliceLocation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info, err := GetTagByName(tc.name)
			if err != nil {
				t.Fatalf("GetTagByName(%q) returned error: %v", tc.name, err)
			}
			if info.Tag != tc.expectedTag {
				t.Errorf("GetTagByName(%q).Tag = %v, want %v", tc.name, info.Tag, tc.expectedTag)
			}
			if info.Name != tc.name {
				t.Errorf("GetTagByName(%q).Name = %q, want %q", tc.name, info.Name, tc.name)
			}
		})
	}
}

func TestGetTagByName_Invalid(t *testing.T) {
	invalidNames := []string{
		"InvalidTagName",
		"NotATag",
		"",
		"   ",
		"PatientNameXYZ",
	}

	for _, name := range invalidNames {
		t.Run(name, func(t *testing.T) {
			_, err := GetTagByName(name)
			if err == nil {
				t.Errorf("GetTagByName(%q) should return error for invalid tag", name)
			}
		})
	}
}

func TestGetTagByName_Suggestion(t *testing.T) {
	tests := []struct {
		typo       string
		suggestion string
	}{
		{"PatientNam", "PatientName"},
		{"PatinetName", "PatientName"},
		{"PatientNme", "PatientName"},
		{"SeriesDescritpion", "SeriesDescription"},
		{"Manufacurer", "Manufacturer"},
		{"ImageTyp", "ImageType"},
		{"SeriesNumbr", "SeriesNumber"},
		{"Modalty", "Modality"},
		{"AcquisitionTme", "AcquisitionTime"},
	}

	for _, tc := range tests {
		t.Run(tc.typo, func(t *testing.T) {
			_, err := GetTagByName(tc.typo)
			if err == nil {
				t.Fatalf("GetTagByName(%q) should return error", tc.typo)
			}
			if !strings.Contains(err.Error(), tc.suggestion) {
				t.Errorf("Error for %q should suggest %q, got: %v", tc.typo, tc.suggestion, err)
			}
		})
	}
}

func TestGetTagByName_CaseInsensitive(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"patientname", "PatientName"},
		{"PATIENTNAME", "PatientName"},
		{"PatientNAME", "PatientName"},
		{"pAtIeNtNaMe", "PatientName"},
		{"studydescription", "StudyDescription"},
		{"STUDYDESCRIPTION", "StudyDescription"},
		{"imagetype", "ImageType"},
		{"SERIESNUMBER", "SeriesNumber"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			info, err := GetTagByName(tc.input)
			if err != nil {
				t.Fatalf("GetTagByName(%q) returned error: %v", tc.input, err)
			}
			if info.Name != tc.expected {
				t.Errorf("GetTagByName(%q).Name = %q, want %q", tc.input, info.Name, tc.expected)
			}
		})
	}
}

func TestSuggestKeyword(t *testing.T) {
	if got := SuggestKeyword(" seriesdescripion "); got != "SeriesDescription" {
		t.Errorf("SuggestKeyword = %q, want SeriesDescription", got)
	}
	if got := SuggestKeyword("CompletelyUnrelatedAttribute"); got != "" {
		t.Errorf("SuggestKeyword = %q, want no suggestion", got)
	}
}

func TestSuggestKeyword_Deterministic(t *testing.T) {
	first := SuggestKeyword("SeriesDat")
	for i := 0; i < 20; i++ {
		if got := SuggestKeyword("SeriesDat"); got != first {
			t.Fatalf("SuggestKeyword changed between calls: %q then %q", first, got)
		}
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"PatientName", "PatinetName", 2}, // transposition counts as 2 in standard Levenshtein
	}

	for _, tc := range tests {
		t.Run(tc.a+"_"+tc.b, func(t *testing.T) {
			result := levenshteinDistance(tc.a, tc.b)
			if result != tc.expected {
				t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tc.a, tc.b, result, tc.expected)
			}
		})
	}
}
