package validator

import "testing"

type statusRequest struct {
	To string `json:"to" validate:"required,color"`
}

func TestRegisterMembership(t *testing.T) {
	val := New()
	allowed := map[string]bool{"red": true, "blue": true}
	if err := val.RegisterMembership("color", func(s string) bool { return allowed[s] }); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := val.Struct(statusRequest{To: " Red "}); err != nil {
		t.Fatalf("expected trimmed, case-insensitive match, got %v", err)
	}

	err := val.Struct(statusRequest{To: "green"})
	if err == nil {
		t.Fatalf("expected validation error for non-member")
	}
	fields := FieldErrors(err)
	if fields["to"] != "color" {
		t.Fatalf("expected json field name with failed tag, got %+v", fields)
	}
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	if FieldErrors(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
