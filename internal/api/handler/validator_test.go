package handler

import (
	"strings"
	"testing"
)

func TestValidator_UsesJSONFieldNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&registerRequest{Email: "not-an-email", Password: "short"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"email must be a valid email", "password must be at least 8"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestValidator_NestedNamespace(t *testing.T) {
	v := NewValidator()

	req := &safetyRequest{TrustedContacts: []trustedContactRequest{{Name: "Ana", Email: "nope"}}}
	err := v.Validate(req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "trusted_contacts[0].email") {
		t.Fatalf("expected nested field path, got %q", err.Error())
	}
}

func TestValidator_Valid(t *testing.T) {
	v := NewValidator()
	if err := v.Validate(&loginRequest{Email: "a@b.co", Password: "whatever1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
