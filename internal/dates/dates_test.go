package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRFC822(t *testing.T) {
	want := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)

	cases := []string{
		"Mon, 03 Jul 2023 10:00:00 +0000",
		"Mon, 03 Jul 2023 10:00:00 GMT",
		"Mon, 3 Jul 2023 10:00:00 UT",
		"03 Jul 2023 10:00:00 Z",
		"Mon, 03 Jul 23 10:00:00 GMT",
		"Mon, 03 Jul 2023 06:00:00 EDT",
		"Mon, 03 Jul 2023 12:00:00 +02:00",
		"Monday, 03 July 2023 10:00:00 GMT",
		"Mon, 03 Jul 2023 10:00:00 +0000 (UTC)",
		"Mon, 03 Jul 2023 11:00:00 GMT+0100",
	}
	for _, s := range cases {
		got, ok := Parse(s)
		require.True(t, ok, s)
		assert.True(t, want.Equal(got), "%s: got %s", s, got)
		assert.Equal(t, time.UTC, got.Location(), s)
	}
}

func TestParseISO8601(t *testing.T) {
	want := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)

	cases := []string{
		"2023-07-03T10:00:00Z",
		"2023-07-03T10:00:00.000Z",
		"2023-07-03T12:00:00+02:00",
		"2023-07-03T05:00:00-0500",
		"2023-07-03 10:00:00",
		"2023-07-03t10:00:00z",
		"2023-07-03T10:00Z",
	}
	for _, s := range cases {
		got, ok := Parse(s)
		require.True(t, ok, s)
		assert.True(t, want.Equal(got), "%s: got %s", s, got)
	}

	day, ok := Parse("2023-07-03")
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 7, 3, 0, 0, 0, 0, time.UTC), day)
}

func TestSameInstantBothGrammars(t *testing.T) {
	a, ok := Parse("Sun, 01 Jan 2023 10:00:00 GMT")
	require.True(t, ok)
	b, ok := Parse("2023-01-01T10:00:00Z")
	require.True(t, ok)
	assert.Equal(t, a, b)
}

func TestParseRejects(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"not a date",
		"Mon, 31 Feb 2023 10:00:00 GMT",
		"Mon, 03 Jul 2023 25:00:00 GMT",
		"2023-02-30T10:00:00Z",
		"0001-01-01T00:00:00Z",
	}
	for _, s := range cases {
		_, ok := Parse(s)
		assert.False(t, ok, s)
	}
}

func TestParseBytes(t *testing.T) {
	got, ok := ParseBytes([]byte(" 2020-01-02T00:00:00Z\n"))
	require.True(t, ok)
	assert.Equal(t, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), got)
}

func TestParseMonthFirst(t *testing.T) {
	got, ok := Parse("July 3, 2023")
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 7, 3, 0, 0, 0, 0, time.UTC), got)
}

func TestParseLenientFallback(t *testing.T) {
	got, ok := Parse("2023/07/03 10:00:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC), got)
}
