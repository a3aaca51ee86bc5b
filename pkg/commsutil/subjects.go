package commsutil

import (
	"fmt"
	"strings"
)

// DefaultPrefix is the subject prefix for all skill channels when none is
// configured.
const DefaultPrefix = "skillbus"

// SkillSubject builds the dedicated channel for a skill. Dots in skill names
// would split NATS subject tokens, so they are replaced with underscores.
func SkillSubject(prefix, name string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	safe := strings.ReplaceAll(name, ".", "_")
	return fmt.Sprintf("%s.skill.%s", prefix, safe)
}

// DiscoverySubject builds the shared discovery channel where the manifest is
// broadcast and DESCRIBE requests are answered.
func DiscoverySubject(prefix string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + ".discover"
}
