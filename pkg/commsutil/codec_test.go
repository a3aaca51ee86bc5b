package commsutil

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	type payload struct {
		Skill  string `json:"skill"`
		CallID string `json:"callId"`
	}

	data, err := EncodePayload(payload{Skill: "hear", CallID: "c-1"})
	if err != nil {
		t.Fatalf("commsutil:codec_test - encode failed: %v", err)
	}

	var decoded payload
	if err := DecodePayload(data, &decoded); err != nil {
		t.Fatalf("commsutil:codec_test - decode failed: %v", err)
	}
	if decoded.Skill != "hear" || decoded.CallID != "c-1" {
		t.Errorf("commsutil:codec_test - round trip mismatch: %+v", decoded)
	}
}

func TestDecodePayload_InvalidJSON(t *testing.T) {
	var target map[string]string
	if err := DecodePayload([]byte("{not json"), &target); err == nil {
		t.Fatal("commsutil:codec_test - expected error for invalid JSON")
	}
}
