package render

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/kingrea/kanban/internal/board"
	"github.com/kingrea/kanban/internal/card"
	"github.com/kingrea/kanban/internal/store"
)

type xmlRow struct {
	XMLName xml.Name `xml:"c"`
	N       int      `xml:"n,attr"`
	Ses     string   `xml:"ses,attr,omitempty"`
	S       string   `xml:"s,attr"`
	A       string   `xml:"a"`
	E       string   `xml:"e,omitempty"`
	R       string   `xml:"r,omitempty"`
}

type xmlCriterion struct {
	Met  bool   `xml:"met,attr"`
	Text string `xml:",chardata"`
}

type xmlCriteria struct {
	Items []xmlCriterion `xml:"ac"`
}

type xmlFiles struct {
	Files []string `xml:"f"`
}

type xmlEvent struct {
	TS      string `xml:"ts,attr"`
	Message string `xml:",chardata"`
}

type xmlActivity struct {
	Events []xmlEvent `xml:"event"`
}

type xmlCard struct {
	XMLName      xml.Name     `xml:"card"`
	Num          int          `xml:"num,attr"`
	Session      string       `xml:"session,attr"`
	Status       string       `xml:"status,attr"`
	Action       string       `xml:"action"`
	Intent       string       `xml:"intent,omitempty"`
	CancelReason string       `xml:"cancel-reason,omitempty"`
	Criteria     *xmlCriteria `xml:"acceptance-criteria"`
	EditFiles    *xmlFiles    `xml:"edit-files"`
	ReadFiles    *xmlFiles    `xml:"read-files"`
	Activity     *xmlActivity `xml:"activity"`
}

// BoardXML renders a listing as one <c> row per card, grouped into <mine>
// and <others>. Rows are kept on one line each.
func BoardXML(l board.Listing) string {
	var b strings.Builder
	b.WriteString("<board")
	if l.Visibility.Caller != "" {
		b.WriteString(` session="` + escape(l.Visibility.Caller) + `"`)
	}
	b.WriteString(">\n")
	writeGroup(&b, "mine", l, l.Mine, false)
	writeGroup(&b, "others", l, l.Others, true)
	b.WriteString("</board>\n")
	return b.String()
}

func writeGroup(b *strings.Builder, name string, l board.Listing, groups map[string][]store.Entry, withSession bool) {
	var rows []string
	for _, col := range l.Columns {
		for _, e := range groups[col] {
			row := xmlRow{N: e.ID, S: col, A: e.Card.Action}
			if withSession {
				row.Ses = e.Card.Session
			}
			row.E = strings.Join(sorted(e.Card.EditFiles), ",")
			row.R = strings.Join(sorted(e.Card.ReadFiles), ",")
			data, err := xml.Marshal(row)
			if err != nil {
				continue
			}
			rows = append(rows, string(data))
		}
	}
	if len(rows) == 0 {
		return
	}
	b.WriteString("<" + name + ">\n")
	for _, row := range rows {
		b.WriteString(row + "\n")
	}
	b.WriteString("</" + name + ">\n")
}

// CardXML renders one card with its criteria, files and activity.
func CardXML(e store.Entry) string {
	c := e.Card
	doc := xmlCard{
		Num:          e.ID,
		Session:      c.Session,
		Status:       board.Status(e),
		Action:       c.Action,
		Intent:       c.Intent,
		CancelReason: c.CancelReason,
	}
	if len(c.Criteria) > 0 {
		doc.Criteria = &xmlCriteria{}
		for _, cr := range c.Criteria {
			doc.Criteria.Items = append(doc.Criteria.Items, xmlCriterion{Met: cr.Met, Text: cr.Text})
		}
	}
	if len(c.EditFiles) > 0 {
		doc.EditFiles = &xmlFiles{Files: sorted(c.EditFiles)}
	}
	if len(c.ReadFiles) > 0 {
		doc.ReadFiles = &xmlFiles{Files: sorted(c.ReadFiles)}
	}
	if len(c.Activity) > 0 {
		doc.Activity = &xmlActivity{}
		for _, a := range c.Activity {
			doc.Activity.Events = append(doc.Activity.Events, xmlEvent{TS: card.FormatTime(a.Timestamp), Message: a.Message})
		}
	}
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return ""
	}
	return string(data) + "\n"
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
