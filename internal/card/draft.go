package card

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ValidationError reports why caller-supplied card data was rejected.
type ValidationError struct {
	// Index is the array position in a bulk payload, or -1 for a single object.
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Index >= 0 {
		fmt.Fprintf(&b, "card[%d]: ", e.Index)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "%s: ", e.Field)
	}
	b.WriteString(e.Reason)
	return b.String()
}

// Draft is validated caller input for a card that does not exist yet.
type Draft struct {
	Action    string
	Intent    string
	ReadFiles []string
	EditFiles []string
	Persona   string
	Model     Model
	Criteria  []Criterion
}

// ParseDrafts validates a JSON object or array of objects. Every element is
// checked before any draft is returned so bulk creation is all-or-nothing.
func ParseDrafts(data []byte) ([]Draft, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &ValidationError{Index: -1, Reason: "JSON payload is empty"}
	}
	if !json.Valid(trimmed) {
		var probe any
		err := json.Unmarshal(trimmed, &probe)
		return nil, &ValidationError{Index: -1, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	switch trimmed[0] {
	case '{':
		draft, err := parseDraft(trimmed, -1)
		if err != nil {
			return nil, err
		}
		return []Draft{draft}, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, &ValidationError{Index: -1, Reason: fmt.Sprintf("invalid JSON: %v", err)}
		}
		if len(items) == 0 {
			return nil, &ValidationError{Index: -1, Reason: "JSON array contains no cards"}
		}
		drafts := make([]Draft, 0, len(items))
		for i, item := range items {
			item = bytes.TrimSpace(item)
			if len(item) == 0 || item[0] != '{' {
				return nil, &ValidationError{Index: i, Reason: fmt.Sprintf("array element must be a JSON object, got %s", jsonKind(item))}
			}
			draft, err := parseDraft(item, i)
			if err != nil {
				return nil, err
			}
			drafts = append(drafts, draft)
		}
		return drafts, nil
	default:
		return nil, &ValidationError{Index: -1, Reason: fmt.Sprintf("JSON must be an object or array, got %s", jsonKind(trimmed))}
	}
}

func parseDraft(raw []byte, index int) (Draft, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Draft{}, &ValidationError{Index: index, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	invalid := func(field, format string, args ...any) error {
		return &ValidationError{Index: index, Field: field, Reason: fmt.Sprintf(format, args...)}
	}

	var d Draft
	rawAction, ok := fields["action"]
	if !ok {
		return Draft{}, invalid("action", "is required")
	}
	action, err := stringField(rawAction)
	if err != nil {
		return Draft{}, invalid("action", "%v", err)
	}
	if strings.TrimSpace(action) == "" {
		return Draft{}, invalid("action", "must be a non-empty string")
	}
	d.Action = action

	if d.Intent, err = optionalString(fields, "intent"); err != nil {
		return Draft{}, invalid("intent", "%v", err)
	}
	if d.Persona, err = optionalString(fields, "persona"); err != nil {
		return Draft{}, invalid("persona", "%v", err)
	}
	if d.Persona == "" {
		d.Persona = DefaultPersona
	}
	model, err := optionalString(fields, "model")
	if err != nil {
		return Draft{}, invalid("model", "%v", err)
	}
	if model != "" && !Model(model).Valid() {
		return Draft{}, invalid("model", "invalid model %q (must be one of: %s)", model, joinModels())
	}
	d.Model = Model(model)

	if d.ReadFiles, err = optionalStrings(fields, "readFiles"); err != nil {
		return Draft{}, invalid("readFiles", "%v", err)
	}
	if d.EditFiles, err = optionalStrings(fields, "editFiles"); err != nil {
		return Draft{}, invalid("editFiles", "%v", err)
	}
	if len(d.EditFiles) == 0 {
		if d.EditFiles, err = optionalStrings(fields, "writeFiles"); err != nil {
			return Draft{}, invalid("writeFiles", "%v", err)
		}
	}
	d.ReadFiles = pruneReads(d.ReadFiles, d.EditFiles)

	rawCriteria, hasCriteria := fields["criteria"]
	field := "criteria"
	if !hasCriteria || isNull(rawCriteria) {
		rawCriteria, hasCriteria = fields["ac"]
		field = "ac"
	}
	if hasCriteria && !isNull(rawCriteria) {
		criteria, err := draftCriteria(rawCriteria)
		if err != nil {
			return Draft{}, invalid(field, "%v", err)
		}
		d.Criteria = criteria
	}
	return d, nil
}

func draftCriteria(raw json.RawMessage) ([]Criterion, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("must be an array, got %s", jsonKind(trimmed))
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("must contain at least one criterion when present")
	}
	out := make([]Criterion, 0, len(items))
	for i, item := range items {
		criterion, err := decodeCriterion(item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %v", i, err)
		}
		if strings.TrimSpace(criterion.Text) == "" {
			return nil, fmt.Errorf("[%d]: text must be non-empty", i)
		}
		out = append(out, criterion)
	}
	return out, nil
}

// Build turns the draft into a fresh card owned by session.
func (d Draft) Build(session string, now time.Time) Card {
	now = Stamp(now)
	c := Card{
		Action:    d.Action,
		Intent:    d.Intent,
		ReadFiles: cloneStrings(d.ReadFiles),
		EditFiles: cloneStrings(d.EditFiles),
		Persona:   d.Persona,
		Model:     d.Model,
		Session:   strings.TrimSpace(session),
		Created:   now,
		Updated:   now,
		Activity:  []Activity{{Timestamp: now, Message: "Created"}},
	}
	if c.Persona == "" {
		c.Persona = DefaultPersona
	}
	if len(d.Criteria) > 0 {
		c.Criteria = append([]Criterion{}, d.Criteria...)
	}
	return c
}

func stringField(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", fmt.Errorf("must be a string, got %s", jsonKind(trimmed))
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", err
	}
	return s, nil
}

func optionalString(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return "", nil
	}
	return stringField(raw)
}

func optionalStrings(fields map[string]json.RawMessage, name string) ([]string, error) {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return nil, nil
	}
	trimmed := bytes.TrimSpace(raw)
	if trimmed[0] != '[' {
		return nil, fmt.Errorf("must be an array of strings, got %s", jsonKind(trimmed))
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		s, err := stringField(item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %v", i, err)
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func joinModels() string {
	names := make([]string, len(Models))
	for i, m := range Models {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
