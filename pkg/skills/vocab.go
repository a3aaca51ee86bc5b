package skills

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// emotion is one vocabulary entry: the keywords that signal it and the
// templates the listening skills draw from.
type emotion struct {
	name      string
	keywords  []string
	reflect   string
	reframe   string
	grounding []string
}

// vocabulary is the static emotion table every scanning skill shares.
var vocabulary = []emotion{
	{
		name:     "anxiety",
		keywords: []string{"anxious", "anxiety", "worried", "worry", "nervous", "scared", "afraid", "panic", "dread", "on edge"},
		reflect:  "It sounds like there's a lot of worry running underneath this.",
		reframe:  "Anxiety often means something matters to you. What is the worry trying to protect?",
		grounding: []string{
			"Take three slow breaths, counting four in and six out.",
			"Name five things you can see right now.",
			"Write the worry down and set a time to return to it.",
		},
	},
	{
		name:     "sadness",
		keywords: []string{"sad", "down", "blue", "lonely", "alone", "empty", "grief", "grieving", "miss", "lost", "crying", "cried"},
		reflect:  "That sounds heavy, and it makes sense that it weighs on you.",
		reframe:  "Sadness is usually the shadow of something you care about. The caring is still there.",
		grounding: []string{
			"Let yourself feel it for a few minutes without fixing anything.",
			"Reach out to one person, even with a single message.",
			"Step outside for a short walk, no destination needed.",
		},
	},
	{
		name:     "anger",
		keywords: []string{"angry", "anger", "mad", "furious", "frustrated", "frustrating", "annoyed", "resent", "unfair", "fed up"},
		reflect:  "There's real frustration in what you're describing.",
		reframe:  "Anger tends to point at a boundary that was crossed. Which one was it?",
		grounding: []string{
			"Unclench your jaw and drop your shoulders.",
			"Move: ten pushups, a brisk walk, anything physical.",
			"Draft the angry message, then wait an hour before sending.",
		},
	},
	{
		name:     "shame",
		keywords: []string{"ashamed", "shame", "embarrassed", "guilty", "guilt", "worthless", "failure", "stupid", "not good enough"},
		reflect:  "It sounds like you're being very hard on yourself right now.",
		reframe:  "You are judging a whole person by a single moment. The moment is smaller than you.",
		grounding: []string{
			"Say what happened out loud in plain words, without adjectives.",
			"Ask: would I judge a friend this harshly for the same thing?",
			"Write down one thing you handled well today.",
		},
	},
	{
		name:     "strain",
		keywords: []string{"tired", "exhausted", "drained", "burned out", "burnt out", "overwhelmed", "stressed", "stress", "too much", "rough", "tough", "hard day"},
		reflect:  "That sounds like a lot to carry at once.",
		reframe:  "A rough stretch is information, not a verdict. Something needs to be set down.",
		grounding: []string{
			"Pick the one thing that actually has to happen today.",
			"Take a real break: ten minutes, no screen.",
			"Lower the bar on purpose for the rest of the day.",
		},
	},
	{
		name:     "joy",
		keywords: []string{"happy", "glad", "excited", "grateful", "proud", "relieved", "relief", "great news"},
		reflect:  "There's something bright in this, and it deserves a moment.",
		reframe:  "Good moments count double when you stop to notice them. You just did.",
		grounding: []string{
			"Tell someone the good news today.",
			"Write down what led up to this so you can find it again.",
		},
	},
}

// VocabEntry is a custom vocabulary entry supplied by a node profile. A name
// matching a built-in emotion merges its keywords; a new name adds a new
// emotion with the given phrasings.
type VocabEntry struct {
	Name      string
	Keywords  []string
	Reflect   string
	Reframe   string
	Grounding []string
}

// ExtendVocabulary merges profile entries into the shared vocabulary. The
// vocabulary is process-global: extensions apply to every catalog built in
// the process. Call it during startup, before any handler runs; the
// vocabulary is read without locking afterwards.
func ExtendVocabulary(entries []VocabEntry) error {
	for _, entry := range entries {
		if entry.Name == "" {
			return errors.New("skills: vocabulary entry has no name")
		}
		if len(entry.Keywords) == 0 {
			return fmt.Errorf("skills: vocabulary entry %q has no keywords", entry.Name)
		}
		merged := false
		for i := range vocabulary {
			if vocabulary[i].name == entry.Name {
				vocabulary[i].keywords = append(vocabulary[i].keywords, entry.Keywords...)
				merged = true
				break
			}
		}
		if merged {
			continue
		}
		if entry.Reflect == "" || entry.Reframe == "" || len(entry.Grounding) == 0 {
			return fmt.Errorf("skills: new emotion %q needs reflect, reframe, and grounding phrasings", entry.Name)
		}
		vocabulary = append(vocabulary, emotion{
			name:      entry.Name,
			keywords:  entry.Keywords,
			reflect:   entry.Reflect,
			reframe:   entry.Reframe,
			grounding: entry.Grounding,
		})
	}
	return nil
}

// Match is one scored vocabulary hit in a piece of text.
type Match struct {
	Emotion string `json:"emotion"`
	Keyword string `json:"keyword"`
	Score   int    `json:"score"`
}

// scan finds every vocabulary keyword in text, case-insensitively. Matches
// are ordered by score descending, then by vocabulary order for stability.
func scan(text string) []Match {
	lowered := strings.ToLower(text)
	var matches []Match
	for _, emo := range vocabulary {
		for _, kw := range emo.keywords {
			if n := strings.Count(lowered, kw); n > 0 {
				matches = append(matches, Match{Emotion: emo.name, Keyword: kw, Score: n})
			}
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// dominant returns the emotion with the highest total score across matches,
// or empty when nothing matched.
func dominant(matches []Match) string {
	if len(matches) == 0 {
		return ""
	}
	totals := make(map[string]int)
	for _, m := range matches {
		totals[m.Emotion] += m.Score
	}
	best, bestScore := "", -1
	for _, emo := range vocabulary {
		if s := totals[emo.name]; s > bestScore && s > 0 {
			best, bestScore = emo.name, s
		}
	}
	return best
}

// lookupEmotion returns the vocabulary entry by name.
func lookupEmotion(name string) (emotion, bool) {
	for _, emo := range vocabulary {
		if emo.name == name {
			return emo, true
		}
	}
	return emotion{}, false
}
