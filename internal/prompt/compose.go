// Package prompt builds the system prompt sent to the completion provider.
// Composition is pure: the same inputs always produce the same bytes.
package prompt

import (
	"strings"

	"github.com/aryan0dhankhar/connectcoach/internal/domain"
)

const notProvided = "Not provided"

// Compose renders the foundation block, the optional ad-hoc guides and the
// tool's base template into one system prompt. Context blocks, when present,
// come first and are separated from the template by a blank line.
func Compose(tool ToolType, foundation *domain.UserFoundation, voiceGuide, weekGuide string) string {
	var ctx strings.Builder

	if foundation != nil {
		ctx.WriteString("\nUSER'S FOUNDATION (Use this context for all analysis):\n")
		field(&ctx, "Voice Guide", foundation.VoiceGuide)
		field(&ctx, "Target Audience", foundation.TargetAudience)
		field(&ctx, "Audience Pain Points", foundation.AudiencePainPoints)
		field(&ctx, "Unique Positioning", foundation.UniquePositioning)
		field(&ctx, "Audience Observations", foundation.AudienceObservations)
		field(&ctx, "Business/Offer", foundation.OfferDescription)
	}

	if voiceGuide != "" {
		ctx.WriteString("\n\nADDITIONAL VOICE GUIDE:\n")
		ctx.WriteString(voiceGuide)
	}
	if weekGuide != "" {
		ctx.WriteString("\n\nWEEK IMPLEMENTATION GUIDE:\n")
		ctx.WriteString(weekGuide)
	}

	base := Template(tool)
	if ctx.Len() == 0 {
		return base
	}
	return ctx.String() + "\n\n" + base
}

func field(b *strings.Builder, label, value string) {
	if value == "" {
		value = notProvided
	}
	b.WriteString("\n")
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}
