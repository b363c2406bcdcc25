package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Headers of a signed delivery callback.
const (
	SignatureHeader = "X-Webhook-Signature"
	TimestampHeader = "X-Webhook-Timestamp"
)

// Sign returns the hex HMAC-SHA256 of "<unix timestamp>.<payload>".
// Gateways or relays posting delivery callbacks sign them this way.
func Sign(secret string, payload []byte, at time.Time) string {
	h := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(h, "%d.%s", at.Unix(), payload)
	return hex.EncodeToString(h.Sum(nil))
}

// SignRequest sets the signature headers on req for payload.
func SignRequest(req *http.Request, secret string, payload []byte, at time.Time) {
	req.Header.Set(SignatureHeader, Sign(secret, payload, at))
	req.Header.Set(TimestampHeader, strconv.FormatInt(at.Unix(), 10))
}

// verifySignature checks the signature headers of a callback against payload.
// Timestamps older than maxAge, or more than a minute in the future, are rejected.
func verifySignature(secret string, payload []byte, header http.Header, maxAge time.Duration, now time.Time) error {
	sig := header.Get(SignatureHeader)
	rawTS := header.Get(TimestampHeader)
	if sig == "" || rawTS == "" {
		return ErrMissingSignature
	}
	ts, err := strconv.ParseInt(rawTS, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid timestamp", ErrInvalidSignature)
	}

	at := time.Unix(ts, 0)
	age := now.Sub(at)
	if maxAge > 0 && age > maxAge {
		return fmt.Errorf("%w: %v old", ErrSignatureExpired, age.Truncate(time.Second))
	}
	if age < -time.Minute {
		return fmt.Errorf("%w: timestamp in the future", ErrSignatureExpired)
	}

	expected := Sign(secret, payload, at)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrInvalidSignature
	}
	return nil
}
