package blame

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDate(t *testing.T) {
	const ts = 1161298804 // Thu Oct 19 16:00:04 2006 -0700
	now := time.Unix(ts, 0)
	tests := []struct {
		mode dateMode
		tz   string
		want string
	}{
		{dateISO, "-0700", "2006-10-19 16:00:04 -0700"},
		{dateISOStrict, "-0700", "2006-10-19T16:00:04-07:00"},
		{dateISOStrict, "+0000", "2006-10-19T23:00:04Z"},
		{dateISOStrictOffset, "-0700", "2006-10-19T16:00:04-07:00"},
		{dateISOStrictOffset, "+0000", "2006-10-19T23:00:04+00:00"},
		{dateRFC, "-0700", "Thu, 19 Oct 2006 16:00:04 -0700"},
		{dateShort, "-0700", "2006-10-19"},
		{dateRaw, "-0700", "1161298804 -0700"},
		{dateUnix, "-0700", "1161298804"},
		{dateNormal, "-0700", "Thu Oct 19 16:00:04 2006 -0700"},
		{dateISO, "+0530", "2006-10-20 04:30:04 +0530"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDate(tt.mode, ts, tt.tz, now))
	}
}

func TestFormatDate_SingleDigitDay(t *testing.T) {
	ts := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC).Unix()
	assert.Equal(t, "Tue, 5 Mar 2024 09:00:00 +0000", formatDate(dateRFC, ts, "+0000", time.Now()))
	assert.Equal(t, "Tue Mar 5 09:00:00 2024 +0000", formatDate(dateNormal, ts, "+0000", time.Now()))
}

func TestBlameTime_Pads(t *testing.T) {
	assert.Equal(t, "2006-10-19T23:00:04Z     ", blameTime(dateISOStrict, false, 1161298804, "+0000", time.Now()))
	assert.Equal(t, "1161298804 -0700", blameTime(dateISO, true, 1161298804, "-0700", time.Now()))
	assert.Len(t, blameTime(dateRelative, false, 0, "+0000", time.Unix(30, 0)), 22)
}

func TestRelativeDate(t *testing.T) {
	const day = 24 * 60 * 60
	tests := []struct {
		diff int64
		want string
	}{
		{-5, "in the future"},
		{1, "1 second ago"},
		{89, "89 seconds ago"},
		{90, "2 minutes ago"},
		{60 * 60, "60 minutes ago"},
		{3 * 60 * 60, "3 hours ago"},
		{2 * day, "2 days ago"},
		{20 * day, "3 weeks ago"},
		{100 * day, "3 months ago"},
		{400 * day, "1 year, 1 month ago"},
		{730 * day, "2 years ago"},
		{3000 * day, "8 years ago"},
	}
	const now = 2000000000
	for _, tt := range tests {
		assert.Equal(t, tt.want, relativeDate(now-tt.diff, now), "diff %d", tt.diff)
	}
}

func TestParseDateMode(t *testing.T) {
	for _, s := range []string{"iso", "iso8601", "iso-strict", "rfc", "short", "raw", "unix", "default", "relative"} {
		_, ok := parseDateMode(s)
		assert.True(t, ok, s)
	}
	for _, s := range []string{"human", "local", "iso-local", "format:%Y"} {
		_, ok := parseDateMode(s)
		assert.False(t, ok, s)
	}
}
