package bootstrap

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

const logPrefix = "bootstrap:loader"

// LoadProfile loads a node profile from file paths or environment. It tries
// paths in order: first any paths passed in, then SKILLBUS_PROFILE_FILE env,
// then defaults. A nil Profile with nil error means no profile is configured;
// the node runs on the built-in vocabulary alone.
func LoadProfile(paths ...string) (*Profile, error) {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv("SKILLBUS_PROFILE_FILE"); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/profile.json", "profile.json")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		var profile Profile
		if err := json.Unmarshal(data, &profile); err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse profile file %s: %v", logPrefix, p, err))
			continue
		}
		if err := validate(&profile); err != nil {
			return nil, fmt.Errorf("%s - invalid profile %s: %w", logPrefix, p, err)
		}

		slog.Info(fmt.Sprintf("%s - Loaded node profile from %s", logPrefix, p))
		return &profile, nil
	}

	return nil, nil
}

// validate checks each profile emotion carries a name and at least one
// keyword. Phrasings may be empty for entries merging into built-ins.
func validate(p *Profile) error {
	for i, emo := range p.Emotions {
		if emo.Name == "" {
			return fmt.Errorf("emotion %d has no name", i)
		}
		if len(emo.Keywords) == 0 {
			return fmt.Errorf("emotion %q has no keywords", emo.Name)
		}
	}
	return nil
}
