package feed

import (
	"bytes"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuzuhara/habitsched/schedule"
)

func TestOccurrencesDocument(t *testing.T) {
	start := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	occs := []schedule.Occurrence{
		{
			HabitID:     "h1",
			TimingIndex: 0,
			Date:        schedule.Date{Year: 2024, Month: time.January, Day: 1},
			Start:       mo.Some(start),
			End:         mo.Some(start.Add(time.Hour)),
		},
		{
			HabitID:     "h2",
			TimingIndex: 1,
			Date:        schedule.Date{Year: 2024, Month: time.January, Day: 2},
		},
	}

	doc := OccurrencesDocument(occs)
	root := doc.SelectElement("occurrences")
	require.NotNil(t, root)
	assert.Equal(t, "2", root.SelectAttrValue("count", ""))

	elements := root.SelectElements("occurrence")
	require.Len(t, elements, 2)

	timed := elements[0]
	assert.Equal(t, "h1/0/2024-01-01", timed.SelectAttrValue("key", ""))
	require.NotNil(t, timed.SelectElement("start"))
	assert.Equal(t, "2024-01-01T09:00:00Z", timed.SelectElement("start").Text())
	assert.Equal(t, "2024-01-01T10:00:00Z", timed.SelectElement("end").Text())

	allDay := elements[1]
	assert.Equal(t, "2024-01-02", allDay.SelectAttrValue("date", ""))
	assert.Nil(t, allDay.SelectElement("start"))
}

func TestWriteOccurrencesXML(t *testing.T) {
	var buf bytes.Buffer
	err := WriteOccurrencesXML(&buf, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `<occurrences count="0"/>`)
}
