package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base32"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
)

// Policy define los parámetros TOTP (RFC 6238).
type Policy struct {
	Issuer   string
	Digits   int
	Interval int // segundos por paso
	Skew     int // pasos de tolerancia hacia cada lado
}

var DefaultPolicy = Policy{Issuer: "cadenza", Digits: 6, Interval: 30, Skew: 1}

// GenerateSecret retorna 20 bytes base32 sin padding (RFC 3548).
func GenerateSecret() (string, error) {
	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw), nil
}

// ProvisioningURL construye otpauth:// para renderizar como QR.
// otpauth://totp/{issuer}:{account}?secret=...&issuer=...&algorithm=SHA1&digits=...&period=...
func (p Policy) ProvisioningURL(accountName, secretB32 string) string {
	label := url.PathEscape(fmt.Sprintf("%s:%s", p.Issuer, accountName))
	q := url.Values{}
	q.Set("secret", secretB32)
	q.Set("issuer", p.Issuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", fmt.Sprint(p.Digits))
	q.Set("period", fmt.Sprint(p.Interval))
	return fmt.Sprintf("otpauth://totp/%s?%s", label, q.Encode())
}

// Verify comprueba code contra el secreto en la ventana ±Skew alrededor de t.
func (p Policy) Verify(secretB32, code string, t time.Time) bool {
	code = strings.TrimSpace(code)
	if len(code) != p.Digits {
		return false
	}
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(secretB32))
	if err != nil {
		return false
	}
	counter := t.Unix() / int64(p.Interval)
	for c := counter - int64(p.Skew); c <= counter+int64(p.Skew); c++ {
		if hotp(raw, c, p.Digits) == code {
			return true
		}
	}
	return false
}

// CodeAt genera el código válido para el instante t. Exportado para tests
// y para el flujo de confirmación en desarrollo.
func (p Policy) CodeAt(secretB32 string, t time.Time) (string, error) {
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(secretB32))
	if err != nil {
		return "", fmt.Errorf("totp: invalid secret: %w", err)
	}
	return hotp(raw, t.Unix()/int64(p.Interval), p.Digits), nil
}

func hotp(secretRaw []byte, counter int64, digits int) string {
	// HOTP(K, C) con HMAC-SHA1 (RFC 4226 / 6238)
	var msg [8]byte
	for i := 7; i >= 0; i-- {
		msg[i] = byte(counter & 0xff)
		counter >>= 8
	}
	m := hmac.New(sha1.New, secretRaw)
	_, _ = m.Write(msg[:])
	sum := m.Sum(nil)
	offset := int(sum[len(sum)-1] & 0x0f)
	bin := (int(sum[offset])&0x7f)<<24 | int(sum[offset+1])<<16 | int(sum[offset+2])<<8 | int(sum[offset+3])
	otp := bin % int(math.Pow10(digits))
	return fmt.Sprintf("%0*d", digits, otp)
}
