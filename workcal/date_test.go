package workcal_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance/workcal"
)

func TestLoadZone(t *testing.T) {
	loc, err := workcal.LoadZone("")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Taipei", loc.String())

	_, err = workcal.LoadZone("Local")
	assert.Error(t, err)

	_, err = workcal.LoadZone("Mars/Olympus")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := workcal.ParseDate(" 2024-03-01 ")
	require.NoError(t, err)
	assert.Equal(t, workcal.Date{Year: 2024, Month: time.March, Day: 1}, d)
	assert.Equal(t, time.Friday, d.Weekday())
	assert.False(t, d.IsWeekend())
	assert.True(t, d.AddDays(1).IsWeekend())

	_, err = workcal.ParseDate("2024/03/01")
	assert.Error(t, err)
	_, err = workcal.ParseDate("2024-02-30")
	assert.Error(t, err)
}

func TestDate_Ordering(t *testing.T) {
	a := workcal.NewDate(2024, time.February, 29)
	b := a.AddDays(1)

	assert.Equal(t, "2024-03-01", b.String())
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.After(a))
	assert.Equal(t, workcal.NewDate(2025, time.January, 1), workcal.NewDate(2024, time.December, 32))
}

func TestDate_JSONRoundTrip(t *testing.T) {
	type payload struct {
		Date workcal.Date `json:"date"`
	}
	b, err := json.Marshal(payload{Date: workcal.NewDate(2024, time.January, 1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-01-01"}`, string(b))

	var p payload
	require.Error(t, json.Unmarshal([]byte(`{"date":"01/01/2024"}`), &p))
}

func TestDateIn(t *testing.T) {
	loc, err := workcal.LoadZone("Asia/Taipei")
	require.NoError(t, err)

	instant := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-02", workcal.DateIn(instant, loc).String())
	assert.Equal(t, "2024-03-01", workcal.DateIn(instant, time.UTC).String())
}

func TestParseTimestamp(t *testing.T) {
	loc, err := workcal.LoadZone("Asia/Taipei")
	require.NoError(t, err)
	want := time.Date(2024, 3, 1, 8, 30, 0, 0, loc)

	for _, in := range []string{
		"2024-03-01T08:30",
		"2024-03-01T08:30:00",
		"2024-03-01 08:30",
		"2024-03-01 08:30:00",
		"2024-03-01T08:30:00+08:00",
		"2024-03-01T00:30:00Z",
	} {
		got, err := workcal.ParseTimestamp(in, loc)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s parsed as %s", in, got)
	}

	for _, in := range []string{"", "tomorrow", "2024-03-01", "08:30"} {
		_, err := workcal.ParseTimestamp(in, loc)
		assert.Error(t, err, in)
	}
}
