package payment

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// CanonicalJSON re-serializes a JSON document with object keys sorted, which
// is the form NOWPayments signs. Numbers pass through as json.Number so the
// original literals survive the round trip (9.99 stays 9.99, not 9.99000...).
func CanonicalJSON(body []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode ipn body: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("canonicalize ipn body: %w", err)
	}
	// Encode appends a newline; the signature covers the bare document.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// SignIPN computes the hex HMAC-SHA512 of the canonicalized body.
func SignIPN(secret string, body []byte) (string, error) {
	canon, err := CanonicalJSON(body)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(canon)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// VerifyIPNSignature recomputes the body signature and compares it to the
// supplied header value in constant time. Any decode failure counts as a
// mismatch.
func VerifyIPNSignature(secret string, body []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	if secret == "" || signature == "" {
		return false
	}
	supplied, err := hex.DecodeString(strings.ToLower(signature))
	if err != nil {
		return false
	}

	canon, err := CanonicalJSON(body)
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(canon)
	return hmac.Equal(mac.Sum(nil), supplied)
}
