package crypto

import (
	"errors"
	"fmt"

	"github.com/brocaar/lorawan"

	"gitlab.com/d21d3q/golpp/internal/frame"
	"gitlab.com/d21d3q/golpp/internal/options"
)

var (
	ErrKeyRequired = errors.New("encrypted uplink: session key required (use --appskey)")
	ErrInvalidMIC  = errors.New("uplink MIC mismatch (wrong NwkSKey or corrupted frame)")
)

// Decrypt verifies the MIC when a NwkSKey is known and decrypts the
// FRMPayload in place. Frames without application payload are left as-is.
func Decrypt(u *frame.Uplink, keys options.SessionKeys) error {
	if u.Decrypted || !u.HasFPort || len(u.Payload) == 0 {
		return nil
	}
	if len(keys.NwkSKey) > 0 && !keys.SkipMIC {
		if err := verifyMIC(u, keys.NwkSKey); err != nil {
			return err
		}
	}
	keyBytes := keys.AppSKey
	if u.FPort == 0 {
		keyBytes = keys.NwkSKey
	}
	if len(keyBytes) == 0 {
		return ErrKeyRequired
	}
	key, err := aesKey(keyBytes)
	if err != nil {
		return err
	}
	if err := u.PHY.DecryptFRMPayload(key); err != nil {
		return fmt.Errorf("decrypt FRMPayload: %w", err)
	}
	u.Refresh()
	u.Decrypted = true
	return nil
}

func verifyMIC(u *frame.Uplink, nwkSKey []byte) error {
	key, err := aesKey(nwkSKey)
	if err != nil {
		return err
	}
	ok, err := u.PHY.ValidateUplinkDataMIC(lorawan.LoRaWAN1_0, 0, 0, 0, key, key)
	if err != nil {
		return fmt.Errorf("validate MIC: %w", err)
	}
	if !ok {
		return ErrInvalidMIC
	}
	return nil
}

func aesKey(b []byte) (lorawan.AES128Key, error) {
	var key lorawan.AES128Key
	if len(b) != len(key) {
		return key, fmt.Errorf("invalid AES key: want %d bytes, got %d", len(key), len(b))
	}
	copy(key[:], b)
	return key, nil
}
