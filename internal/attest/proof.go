package attest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// pbkdf2Iterations is the OWASP-recommended minimum for HMAC-SHA256.
	pbkdf2Iterations = 480_000
	// macKeyLen is the derived MAC key length in bytes.
	macKeyLen = 32
	// proofMaxAge bounds how stale a signed proof's timestamp may be.
	proofMaxAge = 5 * time.Minute
)

// proofSalt is a fixed application salt for deriving the MAC key from the
// shared connector secret. The secret is high-entropy configuration, not a
// user password, so a per-message salt is unnecessary; the derivation exists
// to stretch and normalise whatever the operator configured.
var proofSalt = []byte("rentbond/attest/v1")

// ProofSigner produces and checks connector proof signatures. The external
// data connector holds the same shared secret and attaches fdc_sig and
// fdc_ts to event metadata; the gate accepts a gated event when the
// signature matches and the timestamp is fresh.
type ProofSigner struct {
	key []byte
	now func() time.Time
}

// NewProofSigner derives the MAC key from the shared connector secret.
func NewProofSigner(secret string) *ProofSigner {
	return &ProofSigner{
		key: pbkdf2.Key([]byte(secret), proofSalt, pbkdf2Iterations, macKeyLen, sha256.New),
		now: time.Now,
	}
}

// Sign returns the base64 signature for a (user, eventType, ts) triple. The
// message layout mirrors what the connector signs: ts + user + eventType.
func (p *ProofSigner) Sign(user, eventType, ts string) string {
	mac := hmac.New(sha256.New, p.key)
	mac.Write([]byte(ts + user + eventType))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Check verifies a signature and its timestamp. The timestamp is Unix
// seconds as a decimal string; proofs older than proofMaxAge (or from the
// future beyond clock skew) are rejected.
func (p *ProofSigner) Check(user, eventType, ts, sig string) bool {
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	age := p.now().Sub(time.Unix(unix, 0))
	if age > proofMaxAge || age < -proofMaxAge {
		return false
	}
	expected := p.Sign(user, eventType, ts)
	return hmac.Equal([]byte(expected), []byte(sig))
}
