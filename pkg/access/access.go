// Package access classifies callers as local or remote. Internal-tier skills
// execute only for local callers; the classification is a string-identity
// comparison, a deliberately weak stand-in for real authentication.
package access

// Sentinel identities treated as local regardless of node identity.
var localSentinels = map[string]bool{
	"local":     true,
	"localhost": true,
}

// Classifier decides caller locality for the channel transport. The HTTP
// binding does not use it; it checks the literal peer address instead.
type Classifier struct {
	self string
}

// NewClassifier creates a Classifier for a node with the given identity.
func NewClassifier(self string) *Classifier {
	return &Classifier{self: self}
}

// IsLocal reports whether callerID is local to this node. Order: an empty
// identity is local, the node's own identity is local, the sentinel strings
// are local, anything else is remote.
func (c *Classifier) IsLocal(callerID string) bool {
	if callerID == "" {
		return true
	}
	if callerID == c.self {
		return true
	}
	return localSentinels[callerID]
}
