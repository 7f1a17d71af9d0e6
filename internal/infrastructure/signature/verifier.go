package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// Strategy names, in the order providers have historically used them.
const (
	StrategyHMACSHA512 = "hmac-sha512"
	StrategyHMACSHA256 = "hmac-sha256"
	StrategySHA512     = "sha512"
)

// Verifier checks webhook signatures over the exact raw body bytes. Each
// configured strategy is tried against each configured secret, which keeps
// in-flight webhooks valid across a secret rotation.
type Verifier struct {
	secrets    []string
	strategies []string
}

// NewVerifier creates a verifier. An empty strategies list enables every
// known strategy.
func NewVerifier(secrets, strategies []string) *Verifier {
	if len(strategies) == 0 {
		strategies = []string{StrategyHMACSHA512, StrategyHMACSHA256, StrategySHA512}
	}
	return &Verifier{secrets: secrets, strategies: strategies}
}

// Verify reports whether the signature header matches the body under any
// configured strategy and secret, and which strategy matched.
func (v *Verifier) Verify(body []byte, signatureHeader string) (string, bool) {
	sig, ok := decodeSignature(signatureHeader)
	if !ok {
		return "", false
	}

	for _, strategy := range v.strategies {
		for _, secret := range v.secrets {
			if hmac.Equal(sig, compute(strategy, secret, body)) {
				return strategy, true
			}
		}
	}
	return "", false
}

func compute(strategy, secret string, body []byte) []byte {
	switch strategy {
	case StrategyHMACSHA512:
		mac := hmac.New(sha512.New, []byte(secret))
		mac.Write(body)
		return mac.Sum(nil)
	case StrategyHMACSHA256:
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		return mac.Sum(nil)
	case StrategySHA512:
		// Legacy keyed concatenation, kept for providers that predate the
		// HMAC scheme.
		sum := sha512.Sum512(append([]byte(secret), body...))
		return sum[:]
	default:
		return nil
	}
}

// decodeSignature accepts hex or base64 encoded signatures. Providers are
// not consistent about the encoding.
func decodeSignature(header string) ([]byte, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, false
	}

	if sig, err := hex.DecodeString(header); err == nil {
		return sig, true
	}
	if sig, err := base64.StdEncoding.DecodeString(header); err == nil {
		return sig, true
	}
	return nil, false
}
