package types

import "time"

// OutcomeBucket tracks answered / unanswered attempts inside a time bucket.
type OutcomeBucket struct {
	Total    int `json:"total"`
	Answer   int `json:"answer"`
	NoAnswer int `json:"no_answer"`
}

// PrefixCount is one row of a prefix distribution.
type PrefixCount struct {
	Prefix string  `json:"prefix"`
	Area   string  `json:"area,omitempty"`
	Total  int     `json:"total"`
	Pct    float64 `json:"pct"`
}

// PrefixHour is the dominant prefix of one hour of the day.
type PrefixHour struct {
	Hour   int    `json:"hour"`
	Prefix string `json:"prefix"`
	Total  int    `json:"total"`
}

// ContactPoint counts ANIs whose first agent contact happened on Attempt.
type ContactPoint struct {
	Attempt int `json:"attempt"`
	Count   int `json:"count"`
}

// AttemptsBucket counts ANIs that received exactly Attempts calls.
type AttemptsBucket struct {
	Attempts int     `json:"attempts"`
	Count    int     `json:"count"`
	Pct      float64 `json:"pct"`
}

// AnalysisMeta feeds filter controls.
type AnalysisMeta struct {
	DistinctStates    []string `json:"distinct_states"`
	DistinctSubStates []string `json:"distinct_sub_states"`
	DistinctBases     []string `json:"distinct_bases"`
	MaxDuration       float64  `json:"max_duration"`
}

// RecordsFilter selects normalized records. Zero-valued fields impose no constraint.
type RecordsFilter struct {
	States      []string `json:"states,omitempty"`
	SubStates   []string `json:"sub_states,omitempty"`
	Bases       []string `json:"bases,omitempty"`
	ANIContains string   `json:"ani_contains,omitempty"`
	DurationMin *float64 `json:"duration_min,omitempty"`
	DurationMax *float64 `json:"duration_max,omitempty"`
}

// AnalysisSummary is an AnalysisResult without the record list.
type AnalysisSummary struct {
	ID                 string                   `json:"id"`
	FileName           string                   `json:"file_name"`
	UploadedAt         time.Time                `json:"uploaded_at"`
	TotalRecords       int                      `json:"total_records"`
	TotalANIs          int                      `json:"total_anis"`
	ContactedANIs      int                      `json:"contacted_anis"`
	ToBeCleanedANIs    int                      `json:"to_be_cleaned_anis"`
	PctAnswer          float64                  `json:"pct_answer"`
	PctNoAnswer        float64                  `json:"pct_no_answer"`
	StateDistribution  map[string]int           `json:"state_distribution"`
	TagDistribution    map[Tag]int              `json:"tag_distribution"`
	ShiftDistribution  map[string]OutcomeBucket `json:"shift_distribution"`
	RangeDistribution  map[string]OutcomeBucket `json:"range_distribution"`
	PrefixDistribution []PrefixCount            `json:"prefix_distribution"`
	AnsweredPrefixes   []PrefixCount            `json:"answered_prefix_distribution"`
	PrefixByHour       []PrefixHour             `json:"prefix_by_hour"`
	ContactCurve       []ContactPoint           `json:"contact_curve"`
	AttemptsHistogram  []AttemptsBucket         `json:"attempts_histogram"`
	ANISummaries       []ANISummary             `json:"ani_summaries"`
	Meta               AnalysisMeta             `json:"meta"`
}

// AnalysisResult is the full output of one pipeline run.
type AnalysisResult struct {
	AnalysisSummary
	Records []CanonicalRecord `json:"records"`
}

// Summary returns the lightweight projection without records.
func (a *AnalysisResult) Summary() AnalysisSummary {
	return a.AnalysisSummary
}
