package prompt

import (
	"strings"
	"testing"

	"github.com/aryan0dhankhar/connectcoach/internal/domain"
)

func TestCompose_NoContextReturnsTemplate(t *testing.T) {
	for _, tool := range Tools {
		if got := Compose(tool, nil, "", ""); got != Template(tool) {
			t.Errorf("%s: expected bare template, got %q", tool, got)
		}
	}
}

func TestCompose_FoundationGolden(t *testing.T) {
	f := &domain.UserFoundation{
		VoiceGuide:       "Warm, direct",
		TargetAudience:   "New coaches",
		OfferDescription: "8-week course",
	}

	want := "\nUSER'S FOUNDATION (Use this context for all analysis):\n" +
		"\nVoice Guide: Warm, direct\n" +
		"\nTarget Audience: New coaches\n" +
		"\nAudience Pain Points: Not provided\n" +
		"\nUnique Positioning: Not provided\n" +
		"\nAudience Observations: Not provided\n" +
		"\nBusiness/Offer: 8-week course\n" +
		"\n\nWeek 4: Natural Voice. Check for performance vs authentic presence. Flag forced vulnerability."

	if got := Compose(Week4NaturalVoice, f, "", ""); got != want {
		t.Errorf("unexpected prompt:\n got: %q\nwant: %q", got, want)
	}
}

func TestCompose_AdHocGuidesOnly(t *testing.T) {
	got := Compose(SocialPost, nil, "Casual tone", "Week 2 notes")
	want := "\n\nADDITIONAL VOICE GUIDE:\nCasual tone" +
		"\n\nWEEK IMPLEMENTATION GUIDE:\nWeek 2 notes" +
		"\n\n" + Template(SocialPost)
	if got != want {
		t.Errorf("unexpected prompt:\n got: %q\nwant: %q", got, want)
	}
}

func TestCompose_BlockOrder(t *testing.T) {
	got := Compose(EmailAnalyzer, &domain.UserFoundation{}, "VG", "WG")

	foundation := strings.Index(got, "USER'S FOUNDATION")
	voice := strings.Index(got, "ADDITIONAL VOICE GUIDE")
	week := strings.Index(got, "WEEK IMPLEMENTATION GUIDE")
	base := strings.Index(got, "Email Analysis:")
	if !(foundation < voice && voice < week && week < base) || foundation < 0 {
		t.Errorf("blocks out of order: %d %d %d %d", foundation, voice, week, base)
	}
	if strings.Count(got, notProvided) != 6 {
		t.Errorf("expected every empty field to read %q", notProvided)
	}
}

func TestCompose_Deterministic(t *testing.T) {
	f := &domain.UserFoundation{VoiceGuide: "v", UniquePositioning: "p"}
	first := Compose(Week6Convert, f, "x", "y")
	for i := 0; i < 10; i++ {
		if Compose(Week6Convert, f, "x", "y") != first {
			t.Fatal("Compose is not deterministic")
		}
	}
}

func TestParseToolType(t *testing.T) {
	for _, tool := range Tools {
		got, ok := ParseToolType(string(tool))
		if !ok || got != tool {
			t.Errorf("ParseToolType(%q) = %q, %v", tool, got, ok)
		}
	}

	got, ok := ParseToolType("linkedinCarousel")
	if ok || got != ContentCritique {
		t.Errorf("unknown tool: got %q, %v", got, ok)
	}
}

func TestTemplate_UnknownFallsBackToCritique(t *testing.T) {
	if Template(ToolType("nope")) != Template(ContentCritique) {
		t.Error("unknown tool should render the content critique template")
	}
	if !strings.HasPrefix(Template(ContentCritique), "You are an expert messaging strategist") {
		t.Error("unexpected critique template")
	}
}

func TestTemplates_Distinct(t *testing.T) {
	seen := map[string]ToolType{}
	for _, tool := range Tools {
		tmpl := Template(tool)
		if prev, dup := seen[tmpl]; dup {
			t.Errorf("%s shares a template with %s", tool, prev)
		}
		seen[tmpl] = tool
	}
	if len(seen) != 12 {
		t.Errorf("expected 12 templates, got %d", len(seen))
	}
}
