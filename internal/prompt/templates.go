package prompt

// Template returns the base system prompt for t. Every tool has its own arm;
// anything else gets the content critique prompt.
func Template(t ToolType) string {
	switch t {
	case Week1Recognition:
		return "Week 1: Recognition Analysis. Check if content creates recognition (about THEM) vs performance (about YOU). Provide ratio and specific rewrites."
	case Week2Observation:
		return "Week 2: Observation Practice. Check if using their exact words, not projecting your journey. Flag cleaned-up language."
	case Week3Navigation:
		return "Week 3: Navigate Resistance. Check if acknowledging protection with compassion vs trying to overcome. Identify protection pattern."
	case Week4NaturalVoice:
		return "Week 4: Natural Voice. Check for performance vs authentic presence. Flag forced vulnerability."
	case Week5MicroMoments:
		return "Week 5: Micro-Moments. Check specificity (time, place, thought). Is it screenshot-worthy? One paragraph max?"
	case Week6Convert:
		return "Week 6: Recognition Sales. Analyze using 40-30-20-10 formula. Calculate actual percentages."
	case Week7Transform:
		return "Week 7: Complete Message. Check if recognition is consistent across all touchpoints."
	case Week8Refinement:
		return "Week 8: Refinement. Comprehensive analysis across all 7 weeks. Integration score and priority fixes."
	case EmailAnalyzer:
		return "Email Analysis: Check subject line recognition, opening specificity, body recognition maintenance, clear CTA."
	case SalesPage:
		return "Sales Page Analysis using 40-30-20-10 formula. Calculate exact percentages and provide section rewrites."
	case SocialPost:
		return "Social Post Analysis: First 7 words, recognition quality, length for platform, screenshot potential."
	default:
		return contentCritiqueTemplate
	}
}

const contentCritiqueTemplate = `You are an expert messaging strategist trained in the CONNECT Method.

Analyze content and provide specific, actionable feedback on Recognition vs Performance, specificity, voice authenticity, and conversion principles.

Provide concrete rewrites showing exactly how to improve.`
