package filesystem

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxExpires is the longest lifetime a signed URL may have (7 days).
	MaxExpires = 7 * 24 * time.Hour

	expiresParam   = "expires"
	signatureParam = "signature"
)

var (
	// ErrInvalidSignature is returned when a URL signature is missing or wrong.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrURLExpired is returned when a signed URL is past its expiry.
	ErrURLExpired = errors.New("signed url expired")
)

// URLSigner issues and verifies time-limited read URLs for objects served by
// ObjectHandler.
type URLSigner struct {
	secret []byte
	now    func() time.Time
}

// NewURLSigner creates a signer using secret as the HMAC key.
func NewURLSigner(secret []byte) *URLSigner {
	return &URLSigner{secret: secret, now: time.Now}
}

// Sign returns the query string granting read access to key until
// now+ttl. The signature covers the method, the key and the expiry.
func (s *URLSigner) Sign(key string, ttl time.Duration) (url.Values, error) {
	if ttl <= 0 || ttl > MaxExpires {
		return nil, fmt.Errorf("sign: ttl must be between 1s and %s", MaxExpires)
	}

	expires := s.now().Add(ttl).Unix()
	q := url.Values{}
	q.Set(expiresParam, strconv.FormatInt(expires, 10))
	q.Set(signatureParam, s.signature(key, expires))
	return q, nil
}

// Verify checks the expiry and signature carried by query for key.
func (s *URLSigner) Verify(key string, query url.Values) error {
	expiresStr := query.Get(expiresParam)
	sig := query.Get(signatureParam)
	if expiresStr == "" || sig == "" {
		return fmt.Errorf("missing signature parameters: %w", ErrInvalidSignature)
	}

	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid expires: %w", ErrInvalidSignature)
	}

	expected := s.signature(key, expires)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(sig))) {
		return fmt.Errorf("signature mismatch: %w", ErrInvalidSignature)
	}

	if s.now().Unix() > expires {
		return ErrURLExpired
	}

	return nil
}

func (s *URLSigner) signature(key string, expires int64) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte("GET\n" + key + "\n" + strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(h.Sum(nil))
}
