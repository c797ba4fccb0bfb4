package models

import "testing"

func TestIsValidPlatform(t *testing.T) {
	for _, p := range SocialPlatforms {
		if !IsValidPlatform(p) {
			t.Fatalf("expected %q to be valid", p)
		}
	}
	for _, p := range []string{"", "myspace", "YouTube", "youtube "} {
		if IsValidPlatform(p) {
			t.Fatalf("expected %q to be invalid", p)
		}
	}
}

func TestCreateUser(t *testing.T) {
	u, err := CreateUser("Creator One", "creator@example.com", "secret123", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Role != ROLE_CREATOR {
		t.Fatalf("expected default role creator, got %q", u.Role)
	}
	if u.Password == "secret123" {
		t.Fatalf("password must be stored hashed")
	}
	if !CheckPasswordHash("secret123", u.Password) {
		t.Fatalf("hash does not verify")
	}
	if CheckPasswordHash("wrong", u.Password) {
		t.Fatalf("wrong password must not verify")
	}

	if _, err := CreateUser("X", "not-an-email", "secret123", ROLE_SPONSOR); err == nil {
		t.Fatalf("expected validation error")
	}
}
