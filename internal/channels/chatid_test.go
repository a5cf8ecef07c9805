package channels

import "testing"

func TestChatIDDeterministic(t *testing.T) {
	if ChatID("C0123456") != ChatID("C0123456") {
		t.Fatalf("expected ChatID to be deterministic")
	}
}

func TestChatIDDistinguishesInputs(t *testing.T) {
	if ChatID("C0123456") == ChatID("C0654321") {
		t.Fatalf("expected different native ids to hash differently")
	}
}
