package aggregator

import "dialer-insights-go/internal/types"

type tagRule struct {
	tag   types.Tag
	match func(c types.Counts) bool
}

// tagRules is the precedence table. Categories overlap across rules, so order matters.
var tagRules = []tagRule{
	{types.TagInvalid, func(c types.Counts) bool { return c.Unallocated >= 3 }},
	{types.TagContacted, func(c types.Counts) bool { return c.AnswerAgent >= 1 }},
	{types.TagVoicemailOnly, func(c types.Counts) bool {
		return c.AnsweringMachine >= 5 && c.AnswerAgent == 0
	}},
	{types.TagNotResponding, func(c types.Counts) bool {
		return c.NoAnswer >= 6 && c.AnswerAgent == 0 && c.AnsweringMachine == 0
	}},
	{types.TagRejects, func(c types.Counts) bool { return c.Rejected >= 3 && c.AnswerAgent == 0 }},
}

// AssignTag returns exactly one tag for the final counts of an ANI.
func AssignTag(c types.Counts) types.Tag {
	for _, r := range tagRules {
		if r.match(c) {
			return r.tag
		}
	}
	return types.TagKeepTrying
}
