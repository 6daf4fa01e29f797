package types

import "time"

// RawRow is one untyped source row keyed by the original column name.
// Values are string, float64/int, or nil.
type RawRow map[string]any

// CanonicalRecord is one normalized call attempt.
type CanonicalRecord struct {
	Timestamp       *time.Time `json:"timestamp,omitempty"`
	TimestampRaw    string     `json:"timestamp_raw,omitempty"`
	State           string     `json:"state"`
	SubState        string     `json:"sub_state,omitempty"`
	ANI             string     `json:"ani"`
	Base            string     `json:"base,omitempty"`
	DurationSeconds *float64   `json:"duration_seconds,omitempty"`
	Direction       string     `json:"direction,omitempty"`
	Connection      string     `json:"connection,omitempty"`
	End             string     `json:"end,omitempty"`
}

// Duration returns the record duration, 0 when absent.
func (r CanonicalRecord) Duration() float64 {
	if r.DurationSeconds == nil {
		return 0
	}
	return *r.DurationSeconds
}

// Category is the outcome bucket a single attempt falls into.
type Category int

const (
	CategoryNone Category = iota
	CategoryAnswerAgent
	CategoryAnsweringMachine
	CategoryNoAnswer
	CategoryBusy
	CategoryUnallocated
	CategoryRejected
)

var categoryNames = map[Category]string{
	CategoryNone:             "none",
	CategoryAnswerAgent:      "answer_agent",
	CategoryAnsweringMachine: "answering_machine",
	CategoryNoAnswer:         "no_answer",
	CategoryBusy:             "busy",
	CategoryUnallocated:      "unallocated",
	CategoryRejected:         "rejected",
}

func (c Category) String() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return "unknown"
}

// Tag is the final classification of an ANI.
type Tag string

const (
	TagInvalid       Tag = "INVALID"
	TagContacted     Tag = "CONTACTED"
	TagVoicemailOnly Tag = "VOICEMAIL_ONLY"
	TagNotResponding Tag = "NOT_RESPONDING"
	TagRejects       Tag = "REJECTS"
	TagKeepTrying    Tag = "KEEP_TRYING"
)

// AllTags lists every tag in classifier precedence order.
var AllTags = []Tag{TagInvalid, TagContacted, TagVoicemailOnly, TagNotResponding, TagRejects, TagKeepTrying}

// Counts holds the per-category attempt counters of one ANI.
type Counts struct {
	AnswerAgent      int `json:"answer_agent"`
	AnsweringMachine int `json:"answering_machine"`
	NoAnswer         int `json:"no_answer"`
	Busy             int `json:"busy"`
	Unallocated      int `json:"unallocated"`
	Rejected         int `json:"rejected"`
}

// Add increments the counter for c. CategoryNone is ignored.
func (c *Counts) Add(cat Category) {
	switch cat {
	case CategoryAnswerAgent:
		c.AnswerAgent++
	case CategoryAnsweringMachine:
		c.AnsweringMachine++
	case CategoryNoAnswer:
		c.NoAnswer++
	case CategoryBusy:
		c.Busy++
	case CategoryUnallocated:
		c.Unallocated++
	case CategoryRejected:
		c.Rejected++
	}
}

// Get returns the counter for cat.
func (c Counts) Get(cat Category) int {
	switch cat {
	case CategoryAnswerAgent:
		return c.AnswerAgent
	case CategoryAnsweringMachine:
		return c.AnsweringMachine
	case CategoryNoAnswer:
		return c.NoAnswer
	case CategoryBusy:
		return c.Busy
	case CategoryUnallocated:
		return c.Unallocated
	case CategoryRejected:
		return c.Rejected
	}
	return 0
}

// Categorized is the sum of all six category counters.
func (c Counts) Categorized() int {
	return c.AnswerAgent + c.AnsweringMachine + c.NoAnswer + c.Busy + c.Unallocated + c.Rejected
}

// ANISummary aggregates every attempt made to one phone number.
type ANISummary struct {
	ANI           string `json:"ani"`
	TotalAttempts int    `json:"total_attempts"`
	Counts
	FirstCallAt *time.Time `json:"first_call_at,omitempty"`
	LastCallAt  *time.Time `json:"last_call_at,omitempty"`
	Tag         Tag        `json:"tag"`
}
