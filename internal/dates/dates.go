package dates

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	minYear = 1900
	maxYear = 2200
)

// Parse reads an RFC 822 or ISO 8601 timestamp and returns it in UTC.
// Anything else gets one lenient attempt; ok is false when nothing fits.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return time.Time{}, false
	}

	if looksISO(s) {
		if t, ok := parseISO(s); ok {
			return t, true
		}
	}
	if t, ok := parseRFC822(s); ok {
		return t, true
	}
	return parseLenient(s)
}

func ParseBytes(b []byte) (time.Time, bool) {
	return Parse(string(b))
}

func looksISO(s string) bool {
	if len(s) < 10 || s[4] != '-' {
		return false
	}
	for i := 0; i < 4; i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

var isoLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05Z07",
	"2006-01-02T15:04:05 -0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseISO(s string) (time.Time, bool) {
	if len(s) > 10 && (s[10] == ' ' || s[10] == 't') {
		s = s[:10] + "T" + s[11:]
	}
	if strings.HasSuffix(s, "z") {
		s = s[:len(s)-1] + "Z"
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return inRange(t)
		}
	}
	return time.Time{}, false
}

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var weekdays = map[string]bool{
	"mon": true, "tue": true, "wed": true, "thu": true,
	"fri": true, "sat": true, "sun": true,
}

// zones holds offsets in minutes east of UTC.
var zones = map[string]int{
	"ut": 0, "utc": 0, "gmt": 0, "z": 0,
	"est": -5 * 60, "edt": -4 * 60,
	"cst": -6 * 60, "cdt": -5 * 60,
	"mst": -7 * 60, "mdt": -6 * 60,
	"pst": -8 * 60, "pdt": -7 * 60,
	"akst": -9 * 60, "akdt": -8 * 60,
	"hst": -10 * 60,
	"wet": 0, "west": 60, "bst": 60,
	"cet": 60, "cest": 2 * 60, "met": 60, "mest": 2 * 60,
	"eet": 2 * 60, "eest": 3 * 60, "msk": 3 * 60,
	"jst": 9 * 60, "kst": 9 * 60,
	"aest": 10 * 60, "aedt": 11 * 60, "nzst": 12 * 60, "nzdt": 13 * 60,
}

// militaryZone accepts the single-letter zones of RFC 822. Their signs were
// published inverted, so like RFC 2822 every letter but Z is read as +0000.
func militaryZone(s string) (int, bool) {
	if len(s) != 1 {
		return 0, false
	}
	c := s[0] | 0x20
	if c >= 'a' && c <= 'z' && c != 'j' {
		return 0, true
	}
	return 0, false
}

// parseRFC822 accepts "[Weekday,] DD Mon YYYY [HH:MM[:SS]] [zone]" with
// one- or two-digit days, two- or four-digit years and named or numeric
// zones. Tokens may also appear as "Mon DD YYYY".
func parseRFC822(s string) (time.Time, bool) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n' || r == '\r'
	})

	var (
		day, year, hour, minute, sec, offset  int
		month                                 time.Month
		haveDay, haveYear, haveTime, haveZone bool
	)
	for _, f := range fields {
		lower := strings.ToLower(f)
		switch {
		case strings.HasPrefix(f, "(") && strings.HasSuffix(f, ")"):
			continue
		case month == 0 && len(lower) >= 3 && months[lower[:3]] != 0 && isAlpha(lower):
			month = months[lower[:3]]
		case !haveTime && strings.Contains(f, ":") && isDigit(f[0]):
			h, m, sc, ok := parseClock(f)
			if !ok {
				return time.Time{}, false
			}
			hour, minute, sec, haveTime = h, m, sc, true
		case isDigits(f):
			n, _ := strconv.Atoi(f)
			switch {
			case len(f) == 4 && !haveYear:
				year, haveYear = n, true
			case len(f) <= 2 && !haveDay:
				day, haveDay = n, true
			case len(f) == 2 && !haveYear:
				year, haveYear = twoDigitYear(n), true
			default:
				return time.Time{}, false
			}
		case len(lower) >= 3 && weekdays[lower[:3]] && isAlpha(lower) && !haveTime:
			continue
		case haveTime && !haveZone:
			off, ok := parseZone(f)
			if !ok {
				return time.Time{}, false
			}
			offset, haveZone = off, true
		default:
			return time.Time{}, false
		}
	}

	if month == 0 || !haveDay || !haveYear {
		return time.Time{}, false
	}
	if day < 1 || day > 31 || hour > 23 || minute > 59 || sec > 60 {
		return time.Time{}, false
	}
	if sec == 60 {
		sec = 59
	}

	loc := time.UTC
	if offset != 0 {
		loc = time.FixedZone("", offset*60)
	}
	t := time.Date(year, month, day, hour, minute, sec, 0, loc)
	if t.Day() != day {
		return time.Time{}, false
	}
	return inRange(t)
}

func parseClock(f string) (int, int, int, bool) {
	if i := strings.IndexByte(f, '.'); i > 0 {
		f = f[:i]
	}
	parts := strings.Split(f, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, false
	}
	var vals [3]int
	for i, part := range parts {
		if part == "" || len(part) > 2 || !isDigits(part) {
			return 0, 0, 0, false
		}
		vals[i], _ = strconv.Atoi(part)
	}
	return vals[0], vals[1], vals[2], true
}

func parseZone(f string) (int, bool) {
	lower := strings.ToLower(f)
	if off, ok := zones[lower]; ok {
		return off, true
	}
	if off, ok := militaryZone(lower); ok {
		return off, true
	}
	for _, name := range []string{"gmt", "utc", "ut"} {
		if strings.HasPrefix(lower, name) && len(lower) > len(name) {
			lower = lower[len(name):]
			break
		}
	}
	if len(lower) < 2 || (lower[0] != '+' && lower[0] != '-') {
		return 0, false
	}
	sign := 1
	if lower[0] == '-' {
		sign = -1
	}
	digits := strings.ReplaceAll(lower[1:], ":", "")
	if !isDigits(digits) {
		return 0, false
	}
	var h, m int
	switch len(digits) {
	case 1, 2:
		h, _ = strconv.Atoi(digits)
	case 3:
		h, _ = strconv.Atoi(digits[:1])
		m, _ = strconv.Atoi(digits[1:])
	case 4:
		h, _ = strconv.Atoi(digits[:2])
		m, _ = strconv.Atoi(digits[2:])
	default:
		return 0, false
	}
	if h > 14 || m > 59 {
		return 0, false
	}
	return sign * (h*60 + m), true
}

func twoDigitYear(n int) int {
	if n < 50 {
		return 2000 + n
	}
	return 1900 + n
}

func parseLenient(s string) (time.Time, bool) {
	if !strings.ContainsAny(s, "0123456789") {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return inRange(t)
}

func inRange(t time.Time) (time.Time, bool) {
	t = t.UTC()
	if t.Year() < minYear || t.Year() > maxYear {
		return time.Time{}, false
	}
	return t, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i] | 0x20
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return s != ""
}
