package frame

import (
	"errors"
	"fmt"

	"github.com/brocaar/lorawan"
)

// minUplinkLen is MHDR + DevAddr + FCtrl + FCnt + MIC.
const minUplinkLen = 12

// ErrNotUplink reports a PHYPayload that does not carry uplink data.
var ErrNotUplink = errors.New("frame is not a LoRaWAN data uplink")

// Uplink represents a LoRaWAN data-up frame stripped from radio metadata.
// Payload holds the FRMPayload, still encrypted until crypto.Decrypt runs.
type Uplink struct {
	Raw       []byte
	MType     lorawan.MType
	DevAddr   lorawan.DevAddr
	FCnt      uint32
	ADR       bool
	ACK       bool
	HasFPort  bool
	FPort     uint8
	Payload   []byte
	Decrypted bool
	PHY       lorawan.PHYPayload
}

// Parse decodes a PHYPayload and keeps only confirmed/unconfirmed data up.
func Parse(raw []byte) (Uplink, error) {
	if len(raw) < minUplinkLen {
		return Uplink{}, fmt.Errorf("uplink too short: %d bytes", len(raw))
	}
	var phy lorawan.PHYPayload
	if err := phy.UnmarshalBinary(raw); err != nil {
		return Uplink{}, fmt.Errorf("decode PHYPayload: %w", err)
	}
	if phy.MHDR.MType != lorawan.UnconfirmedDataUp && phy.MHDR.MType != lorawan.ConfirmedDataUp {
		return Uplink{}, fmt.Errorf("%w: mtype %v", ErrNotUplink, phy.MHDR.MType)
	}
	mac, ok := phy.MACPayload.(*lorawan.MACPayload)
	if !ok {
		return Uplink{}, fmt.Errorf("%w: unexpected MAC payload %T", ErrNotUplink, phy.MACPayload)
	}
	u := Uplink{
		Raw:     raw,
		MType:   phy.MHDR.MType,
		DevAddr: mac.FHDR.DevAddr,
		FCnt:    mac.FHDR.FCnt,
		ADR:     mac.FHDR.FCtrl.ADR,
		ACK:     mac.FHDR.FCtrl.ACK,
		PHY:     phy,
	}
	if mac.FPort != nil {
		u.HasFPort = true
		u.FPort = *mac.FPort
	}
	u.Payload = dataBytes(mac)
	return u, nil
}

// Refresh re-reads the FRMPayload after the PHYPayload was mutated.
func (u *Uplink) Refresh() {
	if mac, ok := u.PHY.MACPayload.(*lorawan.MACPayload); ok {
		u.Payload = dataBytes(mac)
	}
}

// DevAddrString returns the device address as upper-case hex (MSB first).
func (u Uplink) DevAddrString() string {
	return fmt.Sprintf("%02X%02X%02X%02X", u.DevAddr[0], u.DevAddr[1], u.DevAddr[2], u.DevAddr[3])
}

// Confirmed reports whether the device requested an acknowledgement.
func (u Uplink) Confirmed() bool {
	return u.MType == lorawan.ConfirmedDataUp
}

func dataBytes(mac *lorawan.MACPayload) []byte {
	var out []byte
	for _, p := range mac.FRMPayload {
		if dp, ok := p.(*lorawan.DataPayload); ok {
			out = append(out, dp.Bytes...)
		}
	}
	return out
}
