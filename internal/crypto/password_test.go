package crypto

import "testing"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret", 4)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if hash == "secret" {
		t.Fatalf("hash must not equal the plaintext")
	}
	if err := CheckPassword(hash, "secret"); err != nil {
		t.Fatalf("expected password to match")
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected password mismatch")
	}
}

func TestPasswordHashingSaltsEachCall(t *testing.T) {
	first, err := HashPassword("secret", 4)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	second, err := HashPassword("secret", 4)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if first == second {
		t.Fatalf("expected different hashes for the same password")
	}
	if err := CheckPassword(first, "secret"); err != nil {
		t.Fatalf("first hash should verify")
	}
	if err := CheckPassword(second, "secret"); err != nil {
		t.Fatalf("second hash should verify")
	}
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	if err := CheckPassword("not-a-bcrypt-hash", "secret"); err == nil {
		t.Fatalf("expected malformed hash to fail verification")
	}
}
