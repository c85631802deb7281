// Package util provides the keyword registry used to check configured
// attribute filters.
package util

import (
	"fmt"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// TagInfo describes a registered attribute.
type TagInfo struct {
	Name string
	Tag  tag.Tag
}

// tagRegistry maps lowercase keywords to their TagInfo. It holds the
// attributes QC configurations commonly filter on.
var tagRegistry = map[string]TagInfo{
	// Patient level tags
	"patientname": {Name: "PatientName", Tag: tag.PatientName},
	"patientid":   {Name: "PatientID", Tag: tag.PatientID},

	// Study level tags
	"studyinstanceuid": {Name: "StudyInstanceUID", Tag: tag.StudyInstanceUID},
	"studydescription": {Name: "StudyDescription", Tag: tag.StudyDescription},
	"studydate":        {Name: "StudyDate", Tag: tag.StudyDate},
	"studytime":        {Name: "StudyTime", Tag: tag.StudyTime},
	"stationname":      {Name: "StationName", Tag: tag.StationName},
	"institutionname":  {Name: "InstitutionName", Tag: tag.InstitutionName},

	// Series level tags
	"seriesinstanceuid":     {Name: "SeriesInstanceUID", Tag: tag.SeriesInstanceUID},
	"seriesdescription":     {Name: "SeriesDescription", Tag: tag.SeriesDescription},
	"seriesnumber":          {Name: "SeriesNumber", Tag: tag.SeriesNumber},
	"seriesdate":            {Name: "SeriesDate", Tag: tag.SeriesDate},
	"seriestime":            {Name: "SeriesTime", Tag: tag.SeriesTime},
	"modality":              {Name: "Modality", Tag: tag.Modality},
	"protocolname":          {Name: "ProtocolName", Tag: tag.ProtocolName},
	"sequencename":          {Name: "SequenceName", Tag: tag.SequenceName},
	"manufacturer":          {Name: "Manufacturer", Tag: tag.Manufacturer},
	"manufacturermodelname": {Name: "ManufacturerModelName", Tag: tag.ManufacturerModelName},

	// Image level tags
	"imagetype":           {Name: "ImageType", Tag: tag.ImageType},
	"instancenumber":      {Name: "InstanceNumber", Tag: tag.InstanceNumber},
	"acquisitiondate":     {Name: "AcquisitionDate", Tag: tag.AcquisitionDate},
	"acquisitiontime":     {Name: "AcquisitionTime", Tag: tag.AcquisitionTime},
	"acquisitiondatetime": {Name: "AcquisitionDateTime", Tag: tag.AcquisitionDateTime},
	"echotime":            {Name: "EchoTime", Tag: tag.EchoTime},
	"slicelocation":       {Name: "SliceLocation", Tag: tag.SliceLocation},
}

// GetTagByName returns the registered attribute for name, ignoring case.
// When name is unknown the error carries the closest registered keyword, if
// any is within reach.
func GetTagByName(name string) (TagInfo, error) {
	normalizedName := strings.ToLower(strings.TrimSpace(name))

	if info, ok := tagRegistry[normalizedName]; ok {
		return info, nil
	}

	if suggestion := SuggestKeyword(name); suggestion != "" {
		return TagInfo{}, fmt.Errorf("unknown tag %q, did you mean %q?", name, suggestion)
	}

	return TagInfo{}, fmt.Errorf("unknown tag %q", name)
}

// SuggestKeyword returns the registered keyword closest to name, or "" when
// nothing is close enough. Ties resolve to the alphabetically first keyword.
func SuggestKeyword(name string) string {
	return findClosestTagName(strings.ToLower(strings.TrimSpace(name)))
}

// findClosestTagName returns the registered keyword with the smallest edit
// distance to input, or "" when the best distance exceeds maxDistance.
func findClosestTagName(input string) string {
	const maxDistance = 5
	bestDistance := maxDistance + 1
	var bestMatch string

	for key, info := range tagRegistry {
		distance := levenshteinDistance(input, key)
		if distance < bestDistance || (distance == bestDistance && info.Name < bestMatch) {
			bestDistance = distance
			bestMatch = info.Name
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

// levenshteinDistance is the number of single-byte insertions, deletions and
// substitutions that turn a into b.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
	}

	for i := 0; i <= len(a); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}

			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}
