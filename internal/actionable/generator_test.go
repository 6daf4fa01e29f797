package actionable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dialer-insights-go/internal/aggregator"
	"dialer-insights-go/internal/types"
)

func TestGenerate_TagCards(t *testing.T) {
	s := types.AnalysisSummary{
		TotalANIs: 100,
		TagDistribution: map[types.Tag]int{
			types.TagInvalid:       30,
			types.TagRejects:       2,
			types.TagKeepTrying:    60,
			types.TagVoicemailOnly: 8,
		},
	}
	cards := Generate(s)
	require.Len(t, cards, 2)
	assert.Equal(t, types.TagInvalid, cards[0].Tag)
	assert.Equal(t, "30 ANIs tagged INVALID (30%)", cards[0].Insight)
	assert.Equal(t, types.TagVoicemailOnly, cards[1].Tag)
}

func TestGenerate_BestShift(t *testing.T) {
	s := types.AnalysisSummary{
		ShiftDistribution: map[string]types.OutcomeBucket{
			aggregator.ShiftMorning:   {Total: 10, Answer: 2},
			aggregator.ShiftAfternoon: {Total: 10, Answer: 5},
		},
	}
	cards := Generate(s)
	require.Len(t, cards, 1)
	assert.Equal(t, "Afternoon shift has the best answer rate", cards[0].Insight)
}

func TestGenerate_Fallback(t *testing.T) {
	cards := Generate(types.AnalysisSummary{
		ShiftDistribution: map[string]types.OutcomeBucket{
			aggregator.ShiftMorning:   {Total: 4, Answer: 1},
			aggregator.ShiftAfternoon: {},
		},
	})
	require.Len(t, cards, 1)
	assert.Equal(t, "No strong cleanup pattern detected", cards[0].Insight)
	assert.Empty(t, cards[0].Tag)
}
