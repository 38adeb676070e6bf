package totp_test

import (
	"strings"
	"testing"
	"time"

	"github.com/dropDatabas3/cadenza/internal/security/totp"
)

// Secreto "12345678901234567890" de los vectores RFC 6238 (SHA-1).
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestCodeAt_RFC6238Vectors(t *testing.T) {
	p := totp.Policy{Digits: 8, Interval: 30}

	cases := []struct {
		unix int64
		want string
	}{
		{59, "94287082"},
		{1111111109, "07081804"},
		{1234567890, "89005924"},
		{2000000000, "69279037"},
	}

	for _, tc := range cases {
		got, err := p.CodeAt(rfcSecret, time.Unix(tc.unix, 0))
		if err != nil {
			t.Fatal(err)
		}
		if got != tc.want {
			t.Errorf("CodeAt(%d) = %s, want %s", tc.unix, got, tc.want)
		}
	}
}

func TestVerify_SkewWindow(t *testing.T) {
	p := totp.Policy{Digits: 6, Interval: 30, Skew: 1}
	now := time.Unix(1234567890, 0)

	for _, offset := range []time.Duration{-30 * time.Second, 0, 30 * time.Second} {
		code, err := p.CodeAt(rfcSecret, now.Add(offset))
		if err != nil {
			t.Fatal(err)
		}
		if !p.Verify(rfcSecret, code, now) {
			t.Errorf("code at offset %v must verify within skew", offset)
		}
	}

	// Dos pasos fuera de la ventana. Puede colisionar por azar con un
	// code de la ventana, así que solo se chequea si difiere de todos.
	stale, err := p.CodeAt(rfcSecret, now.Add(-90*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	inWindow := false
	for _, offset := range []time.Duration{-30 * time.Second, 0, 30 * time.Second} {
		code, err := p.CodeAt(rfcSecret, now.Add(offset))
		if err != nil {
			t.Fatal(err)
		}
		if code == stale {
			inWindow = true
		}
	}
	if !inWindow && p.Verify(rfcSecret, stale, now) {
		t.Error("a code two steps away must not verify")
	}
}

func TestVerify_RejectsMalformedInput(t *testing.T) {
	p := totp.Policy{Digits: 6, Interval: 30, Skew: 1}
	now := time.Now()

	if p.Verify(rfcSecret, "12345", now) {
		t.Error("wrong length must not verify")
	}
	if p.Verify(rfcSecret, "", now) {
		t.Error("empty code must not verify")
	}
	if p.Verify("not base32!!", "123456", now) {
		t.Error("invalid secret must not verify")
	}
}

func TestGenerateSecret(t *testing.T) {
	a, err := totp.GenerateSecret()
	if err != nil {
		t.Fatal(err)
	}
	b, err := totp.GenerateSecret()
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("secrets must be random")
	}
	// 20 bytes -> 32 chars base32 sin padding.
	if len(a) != 32 {
		t.Fatalf("unexpected secret length %d", len(a))
	}
}

func TestProvisioningURL(t *testing.T) {
	p := totp.Policy{Issuer: "cadenza", Digits: 6, Interval: 30}
	u := p.ProvisioningURL("user@example.com", rfcSecret)

	for _, want := range []string{
		"otpauth://totp/",
		"secret=" + rfcSecret,
		"issuer=cadenza",
		"digits=6",
		"period=30",
	} {
		if !strings.Contains(u, want) {
			t.Errorf("provisioning URL missing %q: %s", want, u)
		}
	}
}
