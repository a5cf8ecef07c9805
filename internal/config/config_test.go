package config

import "testing"

func TestAccessConfigAllowedEmptyAllowsEveryone(t *testing.T) {
	var a AccessConfig
	if !a.Allowed(12345) {
		t.Fatalf("expected unrestricted access when AllowedUserIDs is empty")
	}
}

func TestAccessConfigAllowedListedUser(t *testing.T) {
	a := AccessConfig{AllowedUserIDs: []int64{1, 2, 3}}
	if !a.Allowed(2) {
		t.Fatalf("expected listed user to be allowed")
	}
	if a.Allowed(4) {
		t.Fatalf("expected unlisted user to be rejected")
	}
}

func TestDefaultConfigPassesValidate(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
}
