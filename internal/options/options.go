package options

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

type contextKey struct{}

// SessionKeys holds the LoRaWAN 1.0 session keys of one device.
type SessionKeys struct {
	AppSKey []byte
	NwkSKey []byte
	SkipMIC bool
}

// WithSessionKeys stores a copy of the provided keys inside the context.
func WithSessionKeys(ctx context.Context, keys SessionKeys) context.Context {
	if len(keys.AppSKey) == 0 && len(keys.NwkSKey) == 0 && !keys.SkipMIC {
		return ctx
	}
	cp := SessionKeys{
		AppSKey: append([]byte(nil), keys.AppSKey...),
		NwkSKey: append([]byte(nil), keys.NwkSKey...),
		SkipMIC: keys.SkipMIC,
	}
	return context.WithValue(ctx, contextKey{}, cp)
}

// Keys retrieves the session keys from context if present.
func Keys(ctx context.Context) SessionKeys {
	if v := ctx.Value(contextKey{}); v != nil {
		if keys, ok := v.(SessionKeys); ok {
			return keys
		}
	}
	return SessionKeys{}
}

// ParseKeyHex validates and decodes a 32-hex-digit AES key string.
func ParseKeyHex(input string) ([]byte, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	clean := stripWhitespace(input)
	if len(clean) != 32 {
		return nil, fmt.Errorf("AES key must be 32 hex digits (16 bytes), got %d", len(clean))
	}
	dst := make([]byte, 16)
	if _, err := hex.Decode(dst, []byte(clean)); err != nil {
		return nil, fmt.Errorf("invalid AES key hex: %w", err)
	}
	return dst, nil
}

func stripWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
