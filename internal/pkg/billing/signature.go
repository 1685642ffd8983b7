package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultSignatureTolerance bounds how old a signed timestamp may be before
// the delivery is treated as a replay.
const DefaultSignatureTolerance = 5 * time.Minute

// VerifySignature authenticates a webhook payload against the shared secret.
// The header carries `t=<unix>,v1=<hex>` pairs; the signature is
// HMAC-SHA256 over "<t>.<raw body>". Verification operates on the exact raw
// bytes received on the wire — a re-serialized body would not match.
func VerifySignature(payload []byte, header, secret string) error {
	return verifySignatureAt(payload, header, secret, time.Now())
}

func verifySignatureAt(payload []byte, header, secret string, now time.Time) error {
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("%w: no webhook secret configured", ErrInvalidSignature)
	}

	ts, candidates, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	age := now.Sub(time.Unix(ts, 0))
	if age > DefaultSignatureTolerance || age < -DefaultSignatureTolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		if hmac.Equal(candidate, expected) {
			return nil
		}
	}
	return fmt.Errorf("%w: no matching signature", ErrInvalidSignature)
}

// parseSignatureHeader extracts the signed timestamp and all v1 signatures
// from the header value.
func parseSignatureHeader(header string) (int64, [][]byte, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, nil, fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}

	var ts int64 = -1
	var candidates [][]byte
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return 0, nil, fmt.Errorf("%w: malformed signature header", ErrInvalidSignature)
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: malformed timestamp", ErrInvalidSignature)
			}
			ts = parsed
		case "v1":
			decoded, err := hex.DecodeString(v)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: malformed signature value", ErrInvalidSignature)
			}
			candidates = append(candidates, decoded)
		default:
			// Unknown schemes (v0 test-mode signatures etc.) are skipped.
		}
	}

	if ts < 0 || len(candidates) == 0 {
		return 0, nil, fmt.Errorf("%w: header carries no usable signature", ErrInvalidSignature)
	}
	return ts, candidates, nil
}
