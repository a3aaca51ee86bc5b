package protocol

import (
	"encoding/json"
	"fmt"
)

// knownTypes is the set of message types the validator accepts.
var knownTypes = map[string]bool{
	TypeCall:        true,
	TypeChain:       true,
	TypeDescribe:    true,
	TypeResult:      true,
	TypeError:       true,
	TypeChainResult: true,
	TypeManifest:    true,
}

// envelope is the minimal shape shared by every protocol message.
type envelope struct {
	Type string `json:"type"`
}

// IsProtocolMessage reports whether a raw payload looks like one of the known
// protocol shapes. A shared channel may carry unrelated traffic, so this check
// is applied before validation; it never errors, it just answers yes or no.
func IsProtocolMessage(data []byte) bool {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return false
	}
	return knownTypes[env.Type]
}

// Validate applies the schema rules to a raw payload, in order: the payload
// is a non-null JSON object, its type is known, and the per-type field rules
// hold. The registered func answers whether a skill name exists in the
// catalog. Pure and deterministic; no side effects.
func Validate(data []byte, registered func(name string) bool) *Fault {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return NewFault(CodeInvalidCall, "message is not a JSON object")
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || !knownTypes[env.Type] {
		return NewFault(CodeInvalidCall, fmt.Sprintf("unknown message type %q", env.Type))
	}

	switch env.Type {
	case TypeCall:
		var msg CallMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return NewFault(CodeInvalidCall, "malformed CALL message")
		}
		return ValidateCall(&msg, registered)
	case TypeChain:
		var msg ChainMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return NewFault(CodeInvalidChain, "malformed CHAIN message")
		}
		return ValidateChain(&msg, registered)
	case TypeDescribe:
		var msg DescribeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return NewFault(CodeInvalidCall, "malformed DESCRIBE message")
		}
		if msg.Skill == "" {
			return NewFault(CodeInvalidCall, "DESCRIBE requires a skill name")
		}
	}
	return nil
}

// ValidateCall checks a parsed CALL message: the skill must be non-empty and
// registered, and input.text must be a non-empty string.
func ValidateCall(msg *CallMessage, registered func(name string) bool) *Fault {
	if msg.Skill == "" {
		return NewFault(CodeInvalidCall, "CALL requires a skill name")
	}
	if registered != nil && !registered(msg.Skill) {
		return NewFault(CodeInvalidCall, fmt.Sprintf("unknown skill %q", msg.Skill))
	}
	if msg.Input.Text == "" {
		return NewFault(CodeInvalidCall, "CALL requires non-empty input.text")
	}
	return nil
}

// ValidateChain checks a parsed CHAIN message: skills must be a non-empty
// array where every element is registered, and input.text must be non-empty.
func ValidateChain(msg *ChainMessage, registered func(name string) bool) *Fault {
	if len(msg.Skills) == 0 {
		return NewFault(CodeInvalidChain, "CHAIN requires a non-empty skills array")
	}
	for _, name := range msg.Skills {
		if name == "" {
			return NewFault(CodeInvalidChain, "CHAIN contains an empty skill name")
		}
		if registered != nil && !registered(name) {
			return NewFault(CodeInvalidChain, fmt.Sprintf("unknown skill %q in chain", name))
		}
	}
	if msg.Input.Text == "" {
		return NewFault(CodeInvalidChain, "CHAIN requires non-empty input.text")
	}
	return nil
}
