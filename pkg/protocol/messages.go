// Package protocol defines the wire message shapes exchanged on skill
// channels, builders for each shape, and the schema validator.
package protocol

import "time"

// Message type discriminators. Every protocol message carries one of these in
// its "type" field so listeners can ignore unrelated traffic on a shared
// channel.
const (
	TypeCall        = "CALL"
	TypeChain       = "CHAIN"
	TypeDescribe    = "DESCRIBE"
	TypeResult      = "RESULT"
	TypeError       = "ERROR"
	TypeChainResult = "CHAIN_RESULT"
	TypeManifest    = "MANIFEST"
)

// Error codes carried by ERROR messages and HTTP error bodies.
const (
	CodeInvalidCall  = "INVALID_CALL"
	CodeInvalidChain = "INVALID_CHAIN"
	CodeRateLimited  = "RATE_LIMITED"
	CodeAccessDenied = "ACCESS_DENIED"
	CodeSkillError   = "SKILL_ERROR"
)

// Input is the payload a skill handler receives. Context accumulates prior
// step outputs during a chain, keyed by skill name.
type Input struct {
	Text    string                 `json:"text"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// CallMessage requests a single skill invocation. CallId correlates the
// eventual reply; uniqueness is the caller's responsibility.
type CallMessage struct {
	Type   string `json:"type"`
	From   string `json:"from,omitempty"`
	Skill  string `json:"skill"`
	CallID string `json:"callId"`
	Input  Input  `json:"input"`
	TS     int64  `json:"ts"`
}

// ChainMessage requests an ordered sequence of skill invocations where later
// steps observe earlier steps' outputs.
type ChainMessage struct {
	Type   string   `json:"type"`
	From   string   `json:"from,omitempty"`
	Skills []string `json:"skills"`
	CallID string   `json:"callId"`
	Input  Input    `json:"input"`
	TS     int64    `json:"ts"`
}

// DescribeMessage requests the catalog entry for a single skill.
type DescribeMessage struct {
	Type   string `json:"type"`
	From   string `json:"from,omitempty"`
	Skill  string `json:"skill"`
	CallID string `json:"callId"`
	TS     int64  `json:"ts"`
}

// ResultMessage carries a successful single-call output back on the channel
// the request arrived on.
type ResultMessage struct {
	Type   string                 `json:"type"`
	From   string                 `json:"from"`
	CallID string                 `json:"callId"`
	Skill  string                 `json:"skill"`
	Output map[string]interface{} `json:"output"`
	TS     int64                  `json:"ts"`
}

// ErrorMessage carries a coded failure for a call or chain.
type ErrorMessage struct {
	Type    string `json:"type"`
	From    string `json:"from"`
	CallID  string `json:"callId"`
	Code    string `json:"code"`
	Message string `json:"message"`
	TS      int64  `json:"ts"`
}

// StepResult is one entry in a chain's ordered results list. A failed step
// carries Err and the chain proceeds with partial results.
type StepResult struct {
	Skill  string                 `json:"skill"`
	Output map[string]interface{} `json:"output,omitempty"`
	Err    string                 `json:"error,omitempty"`
}

// ChainResultMessage carries a completed chain's ordered results and the
// synthesized response.
type ChainResultMessage struct {
	Type        string       `json:"type"`
	From        string       `json:"from"`
	CallID      string       `json:"callId"`
	Results     []StepResult `json:"results"`
	Synthesized string       `json:"synthesized"`
	TS          int64        `json:"ts"`
}

// ManifestEntry describes one skill in the broadcast catalog.
type ManifestEntry struct {
	Name           string                 `json:"name"`
	Channel        string                 `json:"channel"`
	Tier           string                 `json:"tier"`
	Version        string                 `json:"version"`
	Description    string                 `json:"description,omitempty"`
	InputContract  map[string]interface{} `json:"inputContract,omitempty"`
	OutputContract map[string]interface{} `json:"outputContract,omitempty"`
}

// ManifestMessage is the unsolicited discovery broadcast of the full catalog.
type ManifestMessage struct {
	Type   string          `json:"type"`
	Node   string          `json:"node"`
	Skills []ManifestEntry `json:"skills"`
	TS     int64           `json:"ts"`
}

// Fault is a coded protocol error. Dispatch and validation failures are
// Faults; transports render them as ErrorMessages or HTTP error bodies.
type Fault struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Fault) Error() string {
	return e.Code + ": " + e.Message
}

// NewFault creates a Fault with the given code and message.
func NewFault(code, message string) *Fault {
	return &Fault{Code: code, Message: message}
}

// FaultFrom coerces any error into a Fault. Non-Fault errors become
// SKILL_ERROR, so a handler failure can never leak an uncoded error to the
// transport layer.
func FaultFrom(err error) *Fault {
	if f, ok := err.(*Fault); ok {
		return f
	}
	return &Fault{Code: CodeSkillError, Message: err.Error()}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// NewCallMessage builds a CALL message.
func NewCallMessage(from, skill, callID string, input Input) *CallMessage {
	return &CallMessage{Type: TypeCall, From: from, Skill: skill, CallID: callID, Input: input, TS: nowMillis()}
}

// NewChainMessage builds a CHAIN message.
func NewChainMessage(from string, skillNames []string, callID string, input Input) *ChainMessage {
	return &ChainMessage{Type: TypeChain, From: from, Skills: skillNames, CallID: callID, Input: input, TS: nowMillis()}
}

// NewDescribeMessage builds a DESCRIBE message.
func NewDescribeMessage(from, skill, callID string) *DescribeMessage {
	return &DescribeMessage{Type: TypeDescribe, From: from, Skill: skill, CallID: callID, TS: nowMillis()}
}

// NewResultMessage builds a RESULT reply carrying the original callId.
func NewResultMessage(from, callID, skill string, output map[string]interface{}) *ResultMessage {
	return &ResultMessage{Type: TypeResult, From: from, CallID: callID, Skill: skill, Output: output, TS: nowMillis()}
}

// NewErrorMessage builds an ERROR reply from a Fault.
func NewErrorMessage(from, callID string, fault *Fault) *ErrorMessage {
	return &ErrorMessage{Type: TypeError, From: from, CallID: callID, Code: fault.Code, Message: fault.Message, TS: nowMillis()}
}

// NewChainResultMessage builds a CHAIN_RESULT reply carrying the original callId.
func NewChainResultMessage(from, callID string, results []StepResult, synthesized string) *ChainResultMessage {
	return &ChainResultMessage{Type: TypeChainResult, From: from, CallID: callID, Results: results, Synthesized: synthesized, TS: nowMillis()}
}

// NewManifestMessage builds a MANIFEST broadcast.
func NewManifestMessage(node string, skills []ManifestEntry) *ManifestMessage {
	return &ManifestMessage{Type: TypeManifest, Node: node, Skills: skills, TS: nowMillis()}
}
