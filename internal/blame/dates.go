package blame

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type dateMode int

const (
	dateISO dateMode = iota
	dateISOStrict
	// dateISOStrictOffset is iso-strict as git releases before the "Z"
	// suffix print it: a zero offset is "+00:00".
	dateISOStrictOffset
	dateRFC
	dateShort
	dateRaw
	dateUnix
	dateNormal
	dateRelative
)

// dateWidths are the column widths git pads each mode to.
var dateWidths = map[dateMode]int{
	dateISO:       len("2006-10-19 16:00:04 -0700"),
	dateISOStrict:       len("2006-10-19T16:00:04-07:00"),
	dateISOStrictOffset: len("2006-10-19T16:00:04-07:00"),
	dateRFC:       len("Thu, 19 Oct 2006 16:00:04 -0700"),
	dateShort:     len("2006-10-19"),
	dateRaw:       len("1161298804 -0700"),
	dateUnix:      len("1161298804"),
	dateNormal:    len("Thu Oct 19 16:00:04 2006 -0700"),
	dateRelative:  len("4 years, 11 months ago"),
}

// parseDateMode maps a --date value to a supported mode. Modes that
// depend on the local zone or a custom format are not supported.
func parseDateMode(s string) (dateMode, bool) {
	switch strings.TrimSpace(s) {
	case "", "iso", "iso8601":
		return dateISO, true
	case "iso-strict", "iso8601-strict":
		return dateISOStrict, true
	case "rfc", "rfc2822":
		return dateRFC, true
	case "short":
		return dateShort, true
	case "raw":
		return dateRaw, true
	case "unix":
		return dateUnix, true
	case "default":
		return dateNormal, true
	case "relative":
		return dateRelative, true
	}
	return 0, false
}

// parseTZ converts git's "+hhmm" offset to an int in the same notation.
func parseTZ(tz string) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(tz, "+"))
	return n
}

func zoneFor(tz int) *time.Location {
	sign := 1
	if tz < 0 {
		sign = -1
		tz = -tz
	}
	return time.FixedZone("", sign*((tz/100)*3600+(tz%100)*60))
}

// formatDate renders t the way git's show_date does for mode, in the
// author's zone.
func formatDate(mode dateMode, ts int64, tzStr string, now time.Time) string {
	tz := parseTZ(tzStr)
	t := time.Unix(ts, 0).In(zoneFor(tz))
	switch mode {
	case dateISOStrict, dateISOStrictOffset:
		s := fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d",
			t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
		if tz == 0 && mode == dateISOStrict {
			return s + "Z"
		}
		sign := '+'
		abs := tz
		if tz < 0 {
			sign = '-'
			abs = -tz
		}
		return fmt.Sprintf("%s%c%02d:%02d", s, sign, abs/100, abs%100)
	case dateRFC:
		return fmt.Sprintf("%.3s, %d %.3s %d %02d:%02d:%02d %+05d",
			t.Weekday().String(), t.Day(), t.Month().String(), t.Year(),
			t.Hour(), t.Minute(), t.Second(), tz)
	case dateShort:
		return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
	case dateRaw:
		return fmt.Sprintf("%d %+05d", ts, tz)
	case dateUnix:
		return strconv.FormatInt(ts, 10)
	case dateNormal:
		return fmt.Sprintf("%.3s %.3s %d %02d:%02d:%02d %d %+05d",
			t.Weekday().String(), t.Month().String(), t.Day(),
			t.Hour(), t.Minute(), t.Second(), t.Year(), tz)
	case dateRelative:
		return relativeDate(ts, now.Unix())
	default:
		return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d %+05d",
			t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), tz)
	}
}

// blameTime renders the time column: padded to the mode's width, or the
// raw "seconds tz" pair when raw is set.
func blameTime(mode dateMode, raw bool, ts int64, tz string, now time.Time) string {
	if raw {
		return fmt.Sprintf("%d %s", ts, tz)
	}
	s := formatDate(mode, ts, tz, now)
	if pad := dateWidths[mode] - len(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return fmt.Sprintf(one, n)
	}
	return fmt.Sprintf(many, n)
}

func relativeDate(ts, now int64) string {
	if now < ts {
		return "in the future"
	}
	diff := now - ts
	if diff < 90 {
		return plural(diff, "%d second ago", "%d seconds ago")
	}
	diff = (diff + 30) / 60
	if diff < 90 {
		return plural(diff, "%d minute ago", "%d minutes ago")
	}
	diff = (diff + 30) / 60
	if diff < 36 {
		return plural(diff, "%d hour ago", "%d hours ago")
	}
	diff = (diff + 12) / 24
	if diff < 14 {
		return plural(diff, "%d day ago", "%d days ago")
	}
	if diff < 70 {
		return plural((diff+3)/7, "%d week ago", "%d weeks ago")
	}
	if diff < 365 {
		return plural((diff+15)/30, "%d month ago", "%d months ago")
	}
	if diff < 1825 {
		total := (diff*12*2 + 365) / (365 * 2)
		years, months := total/12, total%12
		if months > 0 {
			return plural(years, "%d year", "%d years") + ", " + plural(months, "%d month ago", "%d months ago")
		}
		return plural(years, "%d year ago", "%d years ago")
	}
	return plural((diff+183)/365, "%d year ago", "%d years ago")
}
