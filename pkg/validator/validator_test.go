package validator

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last@example.co.uk",
		"user+tag@example.io",
	}
	for _, email := range valid {
		if err := ValidateEmail(email); err != nil {
			t.Errorf("Expected %q to be valid, got %v", email, err)
		}
	}

	invalid := []string{
		"",
		"not-an-email",
		"user@",
		"@example.com",
		"user@example",
	}
	for _, email := range invalid {
		if err := ValidateEmail(email); err == nil {
			t.Errorf("Expected %q to be invalid", email)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("longenough1"); err != nil {
		t.Errorf("Expected password to validate, got %v", err)
	}
	if err := ValidatePassword("short"); err == nil {
		t.Error("Expected short password to fail")
	}
	if err := ValidatePassword(""); err == nil {
		t.Error("Expected empty password to fail")
	}
}

func TestValidateRequired(t *testing.T) {
	if err := ValidateRequired("name", "Retro"); err != nil {
		t.Errorf("Expected value to validate, got %v", err)
	}
	if err := ValidateRequired("name", "   "); err == nil {
		t.Error("Expected whitespace-only value to fail")
	}
}

func TestSanitizeEmail(t *testing.T) {
	got := SanitizeEmail("  Alice@Example.COM\x00 ")
	if got != "alice@example.com" {
		t.Errorf("SanitizeEmail = %q, want %q", got, "alice@example.com")
	}
}
