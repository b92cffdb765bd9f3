// Package card defines the work item stored on the board and the codec that
// turns its JSON document into one canonical in-memory shape.
package card

import (
	"strings"
	"time"
)

// Model names an execution tier a card may request.
type Model string

const (
	ModelHaiku  Model = "haiku"
	ModelSonnet Model = "sonnet"
	ModelOpus   Model = "opus"
)

// Models lists every accepted tier in display order.
var Models = []Model{ModelHaiku, ModelSonnet, ModelOpus}

// DefaultPersona is used when a draft does not name a persona.
const DefaultPersona = "unassigned"

// Valid reports whether m is one of the known tiers.
func (m Model) Valid() bool {
	for _, known := range Models {
		if m == known {
			return true
		}
	}
	return false
}

// Criterion is one acceptance check that gates the done transition.
type Criterion struct {
	Text string
	Met  bool
}

// Activity is one entry in the append-only card log.
type Activity struct {
	Timestamp time.Time
	Message   string
}

// Card is a single unit of work. Its identity number lives in the file name,
// not in the document.
type Card struct {
	Action       string
	Intent       string
	ReadFiles    []string
	EditFiles    []string
	Persona      string
	Model        Model
	Session      string
	Criteria     []Criterion
	Activity     []Activity
	Created      time.Time
	Updated      time.Time
	Priority     *int
	CancelReason string
}

// Key returns the ordering key and whether one has been assigned.
func (c Card) Key() (int, bool) {
	if c.Priority == nil {
		return 0, false
	}
	return *c.Priority, true
}

// SetKey assigns the ordering key.
func (c *Card) SetKey(key int) {
	k := key
	c.Priority = &k
}

// Ownerless reports whether the card belongs to no session.
func (c Card) Ownerless() bool {
	return strings.TrimSpace(c.Session) == ""
}

// Touch refreshes the updated timestamp.
func (c *Card) Touch(now time.Time) {
	c.Updated = Stamp(now)
}

// Log appends an activity entry and refreshes the updated timestamp.
func (c *Card) Log(now time.Time, message string) {
	now = Stamp(now)
	c.Activity = append(c.Activity, Activity{Timestamp: now, Message: message})
	c.Updated = now
}

// UnmetCriteria returns the zero-based indices of criteria not yet met.
func (c Card) UnmetCriteria() []int {
	var unmet []int
	for i, criterion := range c.Criteria {
		if !criterion.Met {
			unmet = append(unmet, i)
		}
	}
	return unmet
}

// LeadTime is the span between creation and the last update.
func (c Card) LeadTime() (time.Duration, bool) {
	if c.Created.IsZero() || c.Updated.IsZero() {
		return 0, false
	}
	return c.Updated.Sub(c.Created), true
}

// Touches reports every file the card reads or edits.
func (c Card) Touches() []string {
	out := make([]string, 0, len(c.EditFiles)+len(c.ReadFiles))
	out = append(out, c.EditFiles...)
	out = append(out, c.ReadFiles...)
	return out
}

// Clone returns a deep copy so callers can mutate without aliasing slices.
func (c Card) Clone() Card {
	out := c
	out.ReadFiles = cloneStrings(c.ReadFiles)
	out.EditFiles = cloneStrings(c.EditFiles)
	if c.Criteria != nil {
		out.Criteria = append([]Criterion{}, c.Criteria...)
	}
	if c.Activity != nil {
		out.Activity = append([]Activity{}, c.Activity...)
	}
	if c.Priority != nil {
		out.SetKey(*c.Priority)
	}
	return out
}

// pruneReads drops read entries that are also edited; editing implies reading.
func pruneReads(reads, edits []string) []string {
	if len(reads) == 0 || len(edits) == 0 {
		return reads
	}
	edited := make(map[string]struct{}, len(edits))
	for _, f := range edits {
		edited[f] = struct{}{}
	}
	out := make([]string, 0, len(reads))
	for _, f := range reads {
		if _, ok := edited[f]; ok {
			continue
		}
		out = append(out, f)
	}
	return out
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
