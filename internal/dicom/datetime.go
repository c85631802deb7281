package dicom

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// DateTimeLayout is the timestamp format the QC host stores datetime results in.
const DateTimeLayout = "2006-01-02 15:04:05"

// ErrNoAcquisitionDateTime is returned when none of the date/time attribute
// pairs is present in a dataset.
var ErrNoAcquisitionDateTime = errors.New("no acquisition date/time in dataset")

// dateTimeSources lists the date and time attributes tried in order. A zero
// time tag means the date tag holds a combined DT value.
var dateTimeSources = []struct {
	date tag.Tag
	time tag.Tag
}{
	{date: tag.AcquisitionDateTime},
	{date: tag.AcquisitionDate, time: tag.AcquisitionTime},
	{date: tag.SeriesDate, time: tag.SeriesTime},
	{date: tag.StudyDate, time: tag.StudyTime},
}

// AcquisitionDateTime returns the moment ds was acquired. It prefers the
// AcquisitionDateTime attribute and falls back to the acquisition, series and
// study date/time pairs in that order.
func AcquisitionDateTime(ds dicom.Dataset) (time.Time, error) {
	for _, src := range dateTimeSources {
		d := StringValue(ds, src.date)
		if d == "" {
			continue
		}
		if src.time == (tag.Tag{}) {
			return ParseDT(d)
		}
		t := StringValue(ds, src.time)
		if t == "" {
			continue
		}
		return ParseDateTime(d, t)
	}
	return time.Time{}, ErrNoAcquisitionDateTime
}

// ParseDateTime combines a DA value (YYYYMMDD) and a TM value (HH, HHMM,
// HHMMSS or HHMMSS.FFFFFF) into a time in UTC.
func ParseDateTime(da, tm string) (time.Time, error) {
	da = strings.TrimSpace(da)
	tm = strings.TrimSpace(tm)
	if len(da) != 8 {
		return time.Time{}, fmt.Errorf("parse date %q: expected YYYYMMDD", da)
	}
	return ParseDT(da + tm)
}

// ParseDT parses a DT value, YYYYMMDD[HH[MM[SS[.FFFFFF]]]]. A UTC offset
// suffix is honoured when present.
func ParseDT(dt string) (time.Time, error) {
	dt = strings.TrimSpace(dt)
	loc := time.UTC
	if i := strings.LastIndexAny(dt, "+-"); i >= 8 {
		offset, err := time.Parse("-0700", dt[i:])
		if err != nil {
			return time.Time{}, fmt.Errorf("parse offset in %q: %w", dt, err)
		}
		_, secs := offset.Zone()
		loc = time.FixedZone("", secs)
		dt = dt[:i]
	}

	frac := ""
	if i := strings.IndexByte(dt, '.'); i >= 0 {
		frac = dt[i:]
		dt = dt[:i]
	}

	var layout string
	switch len(dt) {
	case 8:
		layout = "20060102"
	case 10:
		layout = "2006010215"
	case 12:
		layout = "200601021504"
	case 14:
		layout = "20060102150405"
	default:
		return time.Time{}, fmt.Errorf("parse datetime %q: unexpected length", dt)
	}
	if frac == "." {
		frac = ""
	}
	if frac != "" {
		if len(dt) != 14 {
			return time.Time{}, fmt.Errorf("parse datetime %q: fraction without seconds", dt+frac)
		}
		dt += frac
		layout += "." + strings.Repeat("9", len(frac)-1)
	}

	t, err := time.ParseInLocation(layout, dt, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse datetime: %w", err)
	}
	return t, nil
}
