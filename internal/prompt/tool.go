package prompt

// ToolType selects the coaching template used to analyse a submission
type ToolType string

const (
	ContentCritique   ToolType = "contentCritique"
	Week1Recognition  ToolType = "week1Recognition"
	Week2Observation  ToolType = "week2Observation"
	Week3Navigation   ToolType = "week3Navigation"
	Week4NaturalVoice ToolType = "week4NaturalVoice"
	Week5MicroMoments ToolType = "week5MicroMoments"
	Week6Convert      ToolType = "week6Convert"
	Week7Transform    ToolType = "week7Transform"
	Week8Refinement   ToolType = "week8Refinement"
	EmailAnalyzer     ToolType = "emailAnalyzer"
	SalesPage         ToolType = "salesPage"
	SocialPost        ToolType = "socialPost"
)

// Tools lists every known tool in display order
var Tools = []ToolType{
	ContentCritique,
	Week1Recognition,
	Week2Observation,
	Week3Navigation,
	Week4NaturalVoice,
	Week5MicroMoments,
	Week6Convert,
	Week7Transform,
	Week8Refinement,
	EmailAnalyzer,
	SalesPage,
	SocialPost,
}

// ParseToolType maps a wire identifier to a known tool. Unknown identifiers
// resolve to ContentCritique with ok=false.
func ParseToolType(s string) (ToolType, bool) {
	for _, t := range Tools {
		if string(t) == s {
			return t, true
		}
	}
	return ContentCritique, false
}

// Label is the human readable tool name
func (t ToolType) Label() string {
	switch t {
	case Week1Recognition:
		return "Week 1: Recognition"
	case Week2Observation:
		return "Week 2: Observation"
	case Week3Navigation:
		return "Week 3: Navigate Resistance"
	case Week4NaturalVoice:
		return "Week 4: Natural Voice"
	case Week5MicroMoments:
		return "Week 5: Micro-Moments"
	case Week6Convert:
		return "Week 6: Recognition Sales"
	case Week7Transform:
		return "Week 7: Complete Message"
	case Week8Refinement:
		return "Week 8: Refinement"
	case EmailAnalyzer:
		return "Email Analyzer"
	case SalesPage:
		return "Sales Page Analyzer"
	case SocialPost:
		return "Social Post Analyzer"
	default:
		return "Content Critique"
	}
}
