package card

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrEmptyDocument indicates a card file with no content.
	ErrEmptyDocument = errors.New("card: empty document")
	// ErrMalformedDocument indicates the JSON could not be mapped onto a card.
	ErrMalformedDocument = errors.New("card: malformed document")
)

// TimeLayout is the on-disk timestamp format: UTC, with fractional seconds
// written only when present.
const TimeLayout = "2006-01-02T15:04:05.999999999Z"

// document mirrors the on-disk JSON. Optional and legacy shapes are folded into
// Card by toCard so nothing past this file has to ask whether a field exists.
type document struct {
	Action       string            `json:"action"`
	Intent       string            `json:"intent"`
	ReadFiles    []string          `json:"readFiles"`
	EditFiles    []string          `json:"editFiles"`
	WriteFiles   []string          `json:"writeFiles,omitempty"`
	Persona      string            `json:"persona"`
	Model        *string           `json:"model"`
	Session      *string           `json:"session"`
	Criteria     []json.RawMessage `json:"criteria,omitempty"`
	Priority     *int              `json:"priority,omitempty"`
	CancelReason string            `json:"cancelReason,omitempty"`
	Created      string            `json:"created"`
	Updated      string            `json:"updated"`
	Activity     []activityEntry   `json:"activity"`
}

type activityEntry struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

type criterionEntry struct {
	Text string `json:"text"`
	Met  bool   `json:"met"`
}

// Decode parses a stored card document.
func Decode(data []byte) (Card, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Card{}, ErrEmptyDocument
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Card{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return doc.toCard()
}

// Encode renders a card as indented JSON with a trailing newline.
func Encode(c Card) ([]byte, error) {
	doc, err := fromCard(c)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("card: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (d document) toCard() (Card, error) {
	criteria, err := decodeCriteria(d.Criteria)
	if err != nil {
		return Card{}, err
	}
	edits := d.EditFiles
	if len(edits) == 0 {
		edits = d.WriteFiles
	}
	c := Card{
		Action:       d.Action,
		Intent:       d.Intent,
		ReadFiles:    nonEmpty(d.ReadFiles),
		EditFiles:    nonEmpty(edits),
		Persona:      d.Persona,
		Model:        Model(deref(d.Model)),
		Session:      deref(d.Session),
		Criteria:     criteria,
		Priority:     d.Priority,
		CancelReason: d.CancelReason,
		Created:      ParseTime(d.Created),
		Updated:      ParseTime(d.Updated),
	}
	if c.Persona == "" {
		c.Persona = DefaultPersona
	}
	for _, entry := range d.Activity {
		c.Activity = append(c.Activity, Activity{
			Timestamp: ParseTime(entry.Timestamp),
			Message:   entry.Message,
		})
	}
	return c, nil
}

func fromCard(c Card) (document, error) {
	doc := document{
		Action:       c.Action,
		Intent:       c.Intent,
		ReadFiles:    orEmpty(c.ReadFiles),
		EditFiles:    orEmpty(c.EditFiles),
		Persona:      c.Persona,
		Priority:     c.Priority,
		CancelReason: c.CancelReason,
		Created:      FormatTime(c.Created),
		Updated:      FormatTime(c.Updated),
		Activity:     make([]activityEntry, 0, len(c.Activity)),
	}
	if doc.Persona == "" {
		doc.Persona = DefaultPersona
	}
	if c.Model != "" {
		model := string(c.Model)
		doc.Model = &model
	}
	if !c.Ownerless() {
		session := c.Session
		doc.Session = &session
	}
	for _, criterion := range c.Criteria {
		raw, err := json.Marshal(criterionEntry{Text: criterion.Text, Met: criterion.Met})
		if err != nil {
			return document{}, fmt.Errorf("card: encode criterion: %w", err)
		}
		doc.Criteria = append(doc.Criteria, raw)
	}
	for _, entry := range c.Activity {
		doc.Activity = append(doc.Activity, activityEntry{
			Timestamp: FormatTime(entry.Timestamp),
			Message:   entry.Message,
		})
	}
	return doc, nil
}

// decodeCriteria accepts both bare strings and {text, met} objects.
func decodeCriteria(raw []json.RawMessage) ([]Criterion, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]Criterion, 0, len(raw))
	for i, item := range raw {
		criterion, err := decodeCriterion(item)
		if err != nil {
			return nil, fmt.Errorf("%w: criteria[%d]: %v", ErrMalformedDocument, i, err)
		}
		out = append(out, criterion)
	}
	return out, nil
}

func decodeCriterion(raw json.RawMessage) (Criterion, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Criterion{}, fmt.Errorf("empty criterion")
	}
	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return Criterion{}, err
		}
		return Criterion{Text: text}, nil
	case '{':
		var entry criterionEntry
		if err := json.Unmarshal(trimmed, &entry); err != nil {
			return Criterion{}, err
		}
		return Criterion{Text: entry.Text, Met: entry.Met}, nil
	default:
		return Criterion{}, fmt.Errorf("expected string or object, got %s", jsonKind(trimmed))
	}
}

// Stamp normalises an instant the way it reads back from disk: UTC, with no
// monotonic clock reading.
func Stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC()
}

// FormatTime renders t in the on-disk layout; the zero time renders empty.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

// ParseTime reads a stored timestamp. Unparseable values yield the zero time so
// callers can tell "unknown" apart from a real instant.
func ParseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func nonEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return values
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func jsonKind(raw []byte) string {
	if len(raw) == 0 {
		return "nothing"
	}
	switch raw[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
