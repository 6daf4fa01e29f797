package store

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"dialer-insights-go/internal/types"
)

// encode splits a result into its summary and record payloads. The SQL
// backends keep them in separate columns so listing never decodes records.
func encode(res *types.AnalysisResult) (summary, records []byte, err error) {
	if res == nil || res.ID == "" {
		return nil, nil, eris.New("store: analysis without id")
	}
	summary, err = json.Marshal(res.AnalysisSummary)
	if err != nil {
		return nil, nil, eris.Wrap(err, "store: marshal summary")
	}
	recs := res.Records
	if recs == nil {
		recs = []types.CanonicalRecord{}
	}
	records, err = json.Marshal(recs)
	if err != nil {
		return nil, nil, eris.Wrap(err, "store: marshal records")
	}
	return summary, records, nil
}

func decode(summary, records []byte) (*types.AnalysisResult, error) {
	res := &types.AnalysisResult{}
	if err := json.Unmarshal(summary, &res.AnalysisSummary); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal summary")
	}
	if err := json.Unmarshal(records, &res.Records); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal records")
	}
	return res, nil
}

func decodeSummary(b []byte) (types.AnalysisSummary, error) {
	var s types.AnalysisSummary
	err := json.Unmarshal(b, &s)
	return s, eris.Wrap(err, "store: unmarshal summary")
}
