package password

import (
	"strings"
	"testing"
)

var cheap = Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 16}

func TestHashVerify(t *testing.T) {
	phc, err := Hash(cheap, "123456789")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected PHC: %s", phc)
	}
	if !Verify("123456789", phc) {
		t.Fatalf("expected verify ok")
	}
	if Verify("12345678", phc) {
		t.Fatalf("expected verify to fail with wrong password")
	}
}

func TestHashSaltsDiffer(t *testing.T) {
	a, _ := Hash(cheap, "same")
	b, _ := Hash(cheap, "same")
	if a == b {
		t.Fatalf("expected different salts")
	}
}

func TestHashEmpty(t *testing.T) {
	if _, err := Hash(cheap, ""); err != ErrEmpty {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	for _, phc := range []string{"", "plain", "$argon2i$v=19$m=1,t=1,p=1$AA$AA", "$argon2id$v=19$m=x$AA$AA", "$argon2id$v=19$m=1024,t=1,p=1$!!$AA"} {
		if Verify("x", phc) {
			t.Fatalf("expected false for %q", phc)
		}
	}
}

func TestNewHasherDefaults(t *testing.T) {
	if NewHasher(Params{}).Params != Default {
		t.Fatalf("zero params must fall back to Default")
	}
	h := NewHasher(cheap)
	phc, err := h.Hash("secret-pass")
	if err != nil || !h.Verify("secret-pass", phc) {
		t.Fatalf("hasher round trip failed: %v", err)
	}
}

func TestSecret(t *testing.T) {
	h, err := HashSecret("abc123")
	if err != nil {
		t.Fatalf("hash secret: %v", err)
	}
	if !VerifySecret("abc123", h) || VerifySecret("abc124", h) || VerifySecret("abc123", "") {
		t.Fatalf("bcrypt verification mismatch")
	}
}

func TestPolicy(t *testing.T) {
	if ok, _ := DefaultPolicy.Validate("123456789"); !ok {
		t.Fatalf("9 digits must satisfy default policy")
	}
	ok, reasons := Policy{MinLength: 10, RequireUpper: true}.Validate("short")
	if ok || len(reasons) != 2 {
		t.Fatalf("expected too_short and missing_upper, got %v", reasons)
	}
}
