// Package fingerprint canonicalizes request payloads into deterministic
// cache keys. Two payloads that are field-for-field equal always produce
// the same digest regardless of field order; any differing value produces
// a different digest.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/RaparthiSrikar/CityAssist/internal/model"
)

// Sum digests the canonical form of v: JSON with object keys sorted
// lexicographically at every nesting level and numbers rendered exactly as
// they appear on the wire. Returns the lowercase hex SHA-256.
func Sum(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint marshal: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return "", fmt.Errorf("fingerprint decode: %w", err)
	}

	var b strings.Builder
	writeCanonical(&b, generic)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:]), nil
}

// Key namespaces a digest by domain, e.g. "route:<hex>".
func Key(domain model.Domain, sum string) string {
	return string(domain) + ":" + sum
}

// Short is a compact non-cryptographic handle for a full cache key, used
// in log lines and event partition keys where 64 hex chars are unwieldy.
func Short(key string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}

func writeCanonical(b *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case json.Number:
		b.WriteString(t.String())
	case string:
		enc, _ := json.Marshal(t)
		b.Write(enc)
	case []any:
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, e)
		}
		b.WriteByte(']')
	case map[string]any:
		ks := make([]string, 0, len(t))
		for k := range t {
			ks = append(ks, k)
		}
		sort.Strings(ks)
		b.WriteByte('{')
		for i, k := range ks {
			if i > 0 {
				b.WriteByte(',')
			}
			enc, _ := json.Marshal(k)
			b.Write(enc)
			b.WriteByte(':')
			writeCanonical(b, t[k])
		}
		b.WriteByte('}')
	default:
		// decoded JSON never reaches here
		fmt.Fprintf(b, "%v", t)
	}
}
