package scoring

import "ai-vetting/backend/internal/checklist"

// Tier is the coarse risk classification of an assessed tool.
type Tier string

const (
	TierLow    Tier = "Low"
	TierMedium Tier = "Medium"
	TierHigh   Tier = "High"
)

// Rubric is the legend shown next to a computed tier.
const Rubric = "Low: <3 'No' or 'Unclear' responses. Medium: 3-5. High: >5."

const (
	mediumFrom = 3
	mediumTo   = 5
)

// RiskResult is the outcome of an assessment.
type RiskResult struct {
	Tier     Tier `json:"risk"`
	Flagged  int  `json:"flagged"`
	Answered int  `json:"answered"`
}

// CountFlagged counts answers that are No or Unclear.
func CountFlagged(responses map[checklist.QuestionID]checklist.Response) int {
	count := 0
	for _, resp := range responses {
		if resp == checklist.No || resp == checklist.Unclear {
			count++
		}
	}
	return count
}

// TierFor maps a flagged count onto a tier.
func TierFor(flagged int) Tier {
	if flagged < mediumFrom {
		return TierLow
	} else if flagged <= mediumTo {
		return TierMedium
	}
	return TierHigh
}

// ComputeRisk derives the tier from the current responses. Unanswered
// questions are not counted.
func ComputeRisk(responses map[checklist.QuestionID]checklist.Response) Tier {
	return TierFor(CountFlagged(responses))
}

// Assess returns the tier together with the counts that produced it.
func Assess(responses map[checklist.QuestionID]checklist.Response) RiskResult {
	answered := 0
	for _, resp := range responses {
		if resp.Valid() {
			answered++
		}
	}
	flagged := CountFlagged(responses)
	return RiskResult{
		Tier:     TierFor(flagged),
		Flagged:  flagged,
		Answered: answered,
	}
}
