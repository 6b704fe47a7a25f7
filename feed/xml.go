package feed

import (
	"io"
	"strconv"
	"time"

	"github.com/beevik/etree"

	"github.com/yuzuhara/habitsched/schedule"
)

// OccurrencesDocument renders occurrences as the widget-embed XML payload.
// Element order follows the input; timed occurrences carry start/end
// children in RFC 3339, all-day occurrences only their date attribute.
func OccurrencesDocument(occs []schedule.Occurrence) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("occurrences")
	root.CreateAttr("count", strconv.Itoa(len(occs)))

	for _, occ := range occs {
		el := root.CreateElement("occurrence")
		el.CreateAttr("key", occ.Key())
		el.CreateAttr("habit", occ.HabitID)
		el.CreateAttr("timing", strconv.Itoa(occ.TimingIndex))
		el.CreateAttr("date", occ.Date.String())

		if start, ok := occ.Start.Get(); ok {
			el.CreateElement("start").SetText(start.Format(time.RFC3339))
		}
		if end, ok := occ.End.Get(); ok {
			el.CreateElement("end").SetText(end.Format(time.RFC3339))
		}
	}
	return doc
}

// WriteOccurrencesXML writes the indented XML payload to w.
func WriteOccurrencesXML(w io.Writer, occs []schedule.Occurrence) error {
	doc := OccurrencesDocument(occs)
	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}
