package htmlutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `
<html><body>
  <div id="total"><span class="num">1,234.5kWh</span></div>
  <ul class="rooms">
    <li class="room">Living</li>
    <li class="room">Bedroom</li>
  </ul>
</body></html>
`

func TestSelectText(t *testing.T) {
	doc, err := ParseDocument([]byte(samplePage))
	require.NoError(t, err)

	text, ok := SelectText(doc, "#total .num")
	require.True(t, ok)
	assert.Equal(t, "1,234.5kWh", text)

	_, ok = SelectText(doc, "#missing")
	assert.False(t, ok)
}

func TestSelectAllText(t *testing.T) {
	doc, err := ParseDocument([]byte(samplePage))
	require.NoError(t, err)

	rooms := SelectAllText(doc, ".room")
	assert.Equal(t, []string{"Living", "Bedroom"}, rooms)
}

func TestParseNumeric(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1,234.5kWh", 1234.5, true},
		{" 42 W ", 42, true},
		{"18.5℃", 18.5, true},
		{"63%", 63, true},
		{"", 0, false},
		{"not-a-number", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumeric(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 0.0001, "input %q", tc.in)
		}
	}
}

func TestParseNumeric_RoundTripsCanonicalForm(t *testing.T) {
	for _, v := range []float64{0, 1, 42.5, 1234.75, 0.1} {
		s := fmt.Sprintf("%g", v)
		got, ok := ParseNumeric(s)
		require.True(t, ok, "input %q", s)
		assert.InDelta(t, v, got, 0.00001, "input %q", s)
	}
}

func TestExtractDigits(t *testing.T) {
	page := `
	<html><body>
	  <div class="room">
	    <span class="temp_d1 val_2"></span>
	    <span class="temp_d2 val_1"></span>
	    <span class="temp_d3 val_8"></span>
	  </div>
	</body></html>`
	doc, err := ParseDocument([]byte(page))
	require.NoError(t, err)

	room := doc.Find(".room")
	got, ok := ExtractDigits(room, ".temp_d1", ".temp_d2", ".temp_d3")
	require.True(t, ok)
	assert.InDelta(t, 21.8, got, 0.0001)
}

func TestExtractDigits_MissingElementFails(t *testing.T) {
	doc, err := ParseDocument([]byte(`<html><body><div class="room"></div></body></html>`))
	require.NoError(t, err)

	room := doc.Find(".room")
	_, ok := ExtractDigits(room, ".temp_d1", ".temp_d2")
	assert.False(t, ok)
}

func TestDayOfBeginning(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	in := time.Date(2025, 1, 10, 23, 59, 59, 0, loc)

	got := DayOfBeginning(in)

	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, loc), got)
}
