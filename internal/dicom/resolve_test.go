package dicom

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom/pkg/tag"
)

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		in       string
		wantKind IdentifierKind
		wantTag  tag.Tag
		wantOK   bool
	}{
		{"0x0010,0x0010", KindNumericPair, tag.PatientName, true},
		{"0010,0010", KindNumericPair, tag.PatientName, true},
		{"(0008,103E)", KindNumericPair, tag.SeriesDescription, true},
		{" 0x0008, 0x103e ", KindNumericPair, tag.SeriesDescription, true},
		{"PatientName", KindKeyword, tag.PatientName, true},
		{"SeriesDescription", KindKeyword, tag.SeriesDescription, true},
		{"NotARealKeyword", KindKeyword, tag.Tag{}, false},
		{"0x0010", KindKeyword, tag.Tag{}, false},
		{"0xZZZZ,0x0010", KindKeyword, tag.Tag{}, false},
		{"1,2,3", KindKeyword, tag.Tag{}, false},
		{"", KindKeyword, tag.Tag{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			id := ParseIdentifier(tc.in)
			assert.Equal(t, tc.wantKind, id.Kind())
			got, ok := id.Tag()
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.wantTag, got)
			}
		})
	}
}

func TestIdentifierKind_String(t *testing.T) {
	assert.Equal(t, "Tag", KindTag.String())
	assert.Equal(t, "NumericPair", KindNumericPair.String())
	assert.Equal(t, "Keyword", KindKeyword.String())
	assert.Equal(t, "Unknown", IdentifierKind(99).String())
}

func TestIdentifier_String(t *testing.T) {
	assert.Equal(t, "PatientName", ParseIdentifier(" PatientName ").String())
	assert.Equal(t, "0x0010,0x0010", ParseIdentifier("0x0010,0x0010 ").String())
	assert.Equal(t, tag.PatientName.String(), TagIdentifier(tag.PatientName).String())
}

func TestResolve_ThreeSpellingsAgree(t *testing.T) {
	ds := dataset(t, tag.PatientName, []string{"PHANTOM^B0"})

	ids := []Identifier{
		ParseIdentifier("0x0010,0x0010"),
		TagIdentifier(tag.PatientName),
		ParseIdentifier("PatientName"),
	}
	for _, id := range ids {
		got, ok := Resolve(ds, id)
		require.True(t, ok, "identifier %s (%s)", id, id.Kind())
		assert.Equal(t, "PHANTOM^B0", got)
	}
}

func TestResolve_Absent(t *testing.T) {
	ds := dataset(t, tag.Modality, []string{"MR"})

	for _, label := range []string{"SeriesDescription", "NotARealKeyword", "0x0099,0x0099", "garbage,,"} {
		t.Run(label, func(t *testing.T) {
			got, ok := ResolveString(ds, label)
			assert.False(t, ok)
			assert.Empty(t, got)
			assert.Equal(t, NotFound, ResolveOrNotFound(ds, ParseIdentifier(label)))
		})
	}
}

func TestCanonicalText(t *testing.T) {
	ds := dataset(t,
		tag.Modality, []string{"MR "},
		tag.ImageType, []string{"ORIGINAL", "PRIMARY", "R", "FFE"},
		tag.SeriesNumber, []string{"301"},
		tag.PixelSpacing, []string{"0.9765625", "0.9765625"},
		tag.Rows, []int{64},
		tag.DiffusionBValue, []float64{1000.5},
	)

	tests := []struct {
		label string
		want  string
	}{
		{"Modality", "MR"},
		{"ImageType", `ORIGINAL\PRIMARY\R\FFE`},
		{"SeriesNumber", "301"},
		{"PixelSpacing", `0.9765625\0.9765625`},
		{"Rows", "64"},
		{"DiffusionBValue", "1000.5"},
	}
	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			got, ok := ResolveString(ds, tc.label)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCanonicalAny(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, NotFound},
		{"string", "MR", "MR"},
		{"integral float", float64(301), "301"},
		{"fraction", 1.5, "1.5"},
		{"json decimal", json.Number("5.0"), "5.0"},
		{"json integer", json.Number("301"), "301"},
		{"float32", float32(2), "2"},
		{"int", 7, "7"},
		{"bool", true, "true"},
		{"list", []any{"ORIGINAL", "PRIMARY"}, `ORIGINAL\PRIMARY`},
		{"string list", []string{"R", "FFE"}, `R\FFE`},
		{"mixed list", []any{"A", float64(1)}, `A\1`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanonicalAny(tc.in))
		})
	}
}
