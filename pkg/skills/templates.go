package skills

// Fallback phrasings for text where no vocabulary keyword matched.
const (
	fallbackReflection = "I hear you. Tell me more about what's going on."
	fallbackReframe    = "Whatever this is, it's one chapter and not the whole story."
)

var fallbackGrounding = []string{
	"Take one slow breath before deciding anything.",
	"Name what you're feeling in a single word, even a rough one.",
}

// reflectionFor returns the active-listening phrase for an emotion, or the
// fallback when the emotion is unknown.
func reflectionFor(name string) string {
	if emo, ok := lookupEmotion(name); ok {
		return emo.reflect
	}
	return fallbackReflection
}

// reframeFor returns the perspective phrase for an emotion, or the fallback.
func reframeFor(name string) string {
	if emo, ok := lookupEmotion(name); ok {
		return emo.reframe
	}
	return fallbackReframe
}

// groundingFor returns coping suggestions for an emotion, or the fallback
// set.
func groundingFor(name string) []string {
	if emo, ok := lookupEmotion(name); ok {
		return emo.grounding
	}
	return fallbackGrounding
}

// Response tones the internal attune skill can select between.
var knownTones = map[string]string{
	"warm":   "Responses will lean supportive and validating.",
	"direct": "Responses will be brief and to the point.",
	"gentle": "Responses will slow down and soften.",
}

const defaultTone = "warm"
