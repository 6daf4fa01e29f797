package actionable

import (
	"fmt"

	"dialer-insights-go/internal/aggregator"
	"dialer-insights-go/internal/types"
)

type ActionCard struct {
	Tag     types.Tag `json:"tag,omitempty"`
	Insight string    `json:"insight"`
	Action  string    `json:"action"`
	Impact  string    `json:"impact"`
}

// minShare is the share of ANIs (in %) above which a tag deserves a card.
const minShare = 5.0

var tagActions = []struct {
	tag    types.Tag
	action string
	impact string
}{
	{types.TagInvalid, "Remove numbers reported as unallocated from the base", "Fewer wasted dials on dead lines"},
	{types.TagVoicemailOnly, "Move voicemail-only numbers to an SMS or email channel", "Free agent capacity spent on machines"},
	{types.TagNotResponding, "Pause numbers that never answer and retry in a different shift", "Higher contact rate per dial"},
	{types.TagRejects, "Drop numbers that keep rejecting calls", "Lower complaint risk"},
}

// Generate turns an analysis summary into cleanup recommendations.
func Generate(s types.AnalysisSummary) []ActionCard {
	var cards []ActionCard
	for _, ta := range tagActions {
		n := s.TagDistribution[ta.tag]
		share := aggregator.Pct(n, s.TotalANIs)
		if n == 0 || share < minShare {
			continue
		}
		cards = append(cards, ActionCard{
			Tag:     ta.tag,
			Insight: fmt.Sprintf("%d ANIs tagged %s (%.0f%%)", n, ta.tag, share),
			Action:  ta.action,
			Impact:  ta.impact,
		})
	}

	if shift, ok := bestShift(s.ShiftDistribution); ok {
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("%s shift has the best answer rate", shift),
			Action:  fmt.Sprintf("Concentrate retries of KEEP_TRYING numbers in the %s shift", shift),
			Impact:  "More contacts with the same number of attempts",
		})
	}

	if len(cards) == 0 {
		return []ActionCard{{
			Insight: "No strong cleanup pattern detected",
			Action:  "Keep dialing and collect more attempts per ANI",
			Impact:  "Low immediate intervention",
		}}
	}
	return cards
}

func bestShift(dist map[string]types.OutcomeBucket) (string, bool) {
	m, a := dist[aggregator.ShiftMorning], dist[aggregator.ShiftAfternoon]
	if m.Total == 0 || a.Total == 0 {
		return "", false
	}
	mr, ar := aggregator.Pct(m.Answer, m.Total), aggregator.Pct(a.Answer, a.Total)
	switch {
	case mr > ar:
		return aggregator.ShiftMorning, true
	case ar > mr:
		return aggregator.ShiftAfternoon, true
	}
	return "", false
}
