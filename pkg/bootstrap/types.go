// Package bootstrap provides node profile loading: an optional JSON file
// that extends the built-in emotion vocabulary at startup.
package bootstrap

// ProfileEmotion is one custom vocabulary entry in a node profile. Entries
// whose name matches a built-in emotion merge their keywords into it;
// otherwise a new emotion is added and must carry its own phrasings.
type ProfileEmotion struct {
	Name      string   `json:"name"`
	Keywords  []string `json:"keywords"`
	Reflect   string   `json:"reflect,omitempty"`
	Reframe   string   `json:"reframe,omitempty"`
	Grounding []string `json:"grounding,omitempty"`
}

// Profile is the root node profile configuration.
type Profile struct {
	Name        string           `json:"name"`
	Version     string           `json:"version,omitempty"`
	Description string           `json:"description,omitempty"`
	Emotions    []ProfileEmotion `json:"emotions"`
}
