package golpp

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/hashicorp/go-multierror"

	"gitlab.com/d21d3q/golpp/internal/crypto"
	"gitlab.com/d21d3q/golpp/internal/frame"
	"gitlab.com/d21d3q/golpp/internal/lpp"
	internalopts "gitlab.com/d21d3q/golpp/internal/options"
)

type (
	Fields         = lpp.Fields
	Vector         = lpp.Vector
	Coordinate     = lpp.Coordinate
	Raw            = lpp.Raw
	Record         = lpp.Record
	TypeDescriptor = lpp.TypeDescriptor
)

// Decode failures. They are returned wrapped, use errors.Is.
var (
	ErrPayloadEmpty     = lpp.ErrPayloadEmpty
	ErrUnknownDataType  = lpp.ErrUnknownDataType
	ErrBadPayloadFormat = lpp.ErrBadPayloadFormat
	ErrKeyRequired      = crypto.ErrKeyRequired
	ErrInvalidMIC       = crypto.ErrInvalidMIC
)

// ErrMACCommands reports an uplink on FPort 0, which carries MAC commands
// instead of sensor data. The decrypted commands are left in Result.Uplink.
var ErrMACCommands = errors.New("uplink on FPort 0 carries MAC commands, not LPP data")

// Result captures the outcome of a decode.
type Result struct {
	RawHex    string
	ByteCount int
	Uplink    *frame.Uplink
	Fields    *Fields
}

// String renders a human-readable representation of the result.
func (r Result) String() string {
	summary := map[string]any{
		"byte_count": r.ByteCount,
		"raw_hex":    r.RawHex,
	}
	if r.Uplink != nil {
		summary["dev_addr"] = r.Uplink.DevAddrString()
		summary["fcnt"] = r.Uplink.FCnt
		if r.Uplink.HasFPort {
			summary["fport"] = r.Uplink.FPort
		}
		summary["confirmed"] = r.Uplink.Confirmed()
	}
	if r.Fields.Len() > 0 {
		summary["fields"] = r.Fields
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Sprintf("bytes:%d raw:%s (marshal error: %v)", r.ByteCount, r.RawHex, err)
	}
	return string(data)
}

// Decoder decodes LPP payloads with a fixed set of custom types. It is safe
// for concurrent use.
type Decoder struct {
	lpp  *lpp.Decoder
	keys internalopts.SessionKeys
}

// New builds a Decoder from opts.
func New(opts Options) (*Decoder, error) {
	_, keys, err := opts.toInternal(context.Background())
	if err != nil {
		return nil, err
	}
	dec, err := opts.decoder()
	if err != nil {
		return nil, err
	}
	return &Decoder{lpp: dec, keys: keys}, nil
}

// AddDataType registers a custom type. Known ids are left untouched.
func (d *Decoder) AddDataType(id uint8, name string, size int) error {
	return d.lpp.AddDataType(id, name, size)
}

// Types lists every type the decoder knows.
func (d *Decoder) Types() []TypeDescriptor {
	return d.lpp.Types()
}

// Decode decodes a raw LPP payload.
func (d *Decoder) Decode(payload []byte) (Result, error) {
	fields, err := d.lpp.Decode(payload)
	if err != nil {
		return Result{}, fmt.Errorf("decode %d byte payload: %w", len(payload), err)
	}
	return Result{
		RawHex:    strings.ToUpper(hex.EncodeToString(payload)),
		ByteCount: len(payload),
		Fields:    fields,
	}, nil
}

// RecordsHex frames a hex payload without converting values.
func (d *Decoder) RecordsHex(raw string) ([]Record, error) {
	data, err := decodeHex(raw)
	if err != nil {
		return nil, err
	}
	records, err := d.lpp.Records(data)
	if err != nil {
		return nil, fmt.Errorf("frame %d byte payload: %w", len(data), err)
	}
	return records, nil
}

// DecodeHex decodes a hex-encoded LPP payload.
func (d *Decoder) DecodeHex(ctx context.Context, raw string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	data, err := decodeHex(raw)
	if err != nil {
		return Result{}, err
	}
	return d.Decode(data)
}

// DecodeBatch decodes one hex payload per entry. Results of failed entries
// are omitted and their errors are aggregated.
func (d *Decoder) DecodeBatch(ctx context.Context, lines []string) ([]Result, error) {
	var errs *multierror.Error
	results := make([]Result, 0, len(lines))
	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			errs = multierror.Append(errs, err)
			break
		}
		res, err := d.DecodeHex(ctx, line)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("entry %d: %w", i+1, err))
			continue
		}
		results = append(results, res)
	}
	return results, errs.ErrorOrNil()
}

// AnalyzeUplink parses a LoRaWAN PHYPayload given as hex or base64,
// decrypts it and decodes the application payload. Session keys attached to
// ctx with WithKeys take precedence over the decoder's own.
func (d *Decoder) AnalyzeUplink(ctx context.Context, raw string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	data, err := decodeFrame(raw)
	if err != nil {
		return Result{}, err
	}
	uplink, err := frame.Parse(data)
	if err != nil {
		return Result{}, err
	}
	result := Result{
		RawHex:    strings.ToUpper(hex.EncodeToString(data)),
		ByteCount: len(data),
		Uplink:    &uplink,
		Fields:    lpp.NewFields(),
	}
	if !uplink.HasFPort || len(uplink.Payload) == 0 {
		return result, nil
	}
	keys := internalopts.Keys(ctx)
	if len(keys.AppSKey) == 0 && len(keys.NwkSKey) == 0 {
		keys = d.keys
	}
	if err := crypto.Decrypt(&uplink, keys); err != nil {
		return result, err
	}
	if uplink.FPort == 0 {
		return result, ErrMACCommands
	}
	fields, err := d.lpp.Decode(uplink.Payload)
	if err != nil {
		return result, fmt.Errorf("decode FRMPayload of %s: %w", uplink.DevAddrString(), err)
	}
	result.Fields = fields
	return result, nil
}

// WithKeys attaches per-device session keys to ctx for AnalyzeUplink.
func WithKeys(ctx context.Context, appSKeyHex, nwkSKeyHex string) (context.Context, error) {
	ctx, _, err := Options{AppSKeyHex: appSKeyHex, NwkSKeyHex: nwkSKeyHex}.toInternal(ctx)
	return ctx, err
}

// Decode decodes a raw payload with opts.
func Decode(payload []byte, opts Options) (Result, error) {
	d, err := New(opts)
	if err != nil {
		return Result{}, err
	}
	return d.Decode(payload)
}

// DecodeBatch decodes hex payloads with opts, see Decoder.DecodeBatch.
func DecodeBatch(ctx context.Context, lines []string, opts Options) ([]Result, error) {
	d, err := New(opts)
	if err != nil {
		return nil, err
	}
	return d.DecodeBatch(ctx, lines)
}

// DecodeHex decodes a hex payload using only the standard types.
func DecodeHex(ctx context.Context, raw string) (Result, error) {
	return DecodeHexWithOptions(ctx, raw, Options{})
}

// DecodeHexWithOptions decodes a hex payload with custom options.
func DecodeHexWithOptions(ctx context.Context, raw string, opts Options) (Result, error) {
	d, err := New(opts)
	if err != nil {
		return Result{}, err
	}
	return d.DecodeHex(ctx, raw)
}

// AnalyzeUplink parses and decodes a LoRaWAN uplink with opts.
func AnalyzeUplink(ctx context.Context, raw string, opts Options) (Result, error) {
	d, err := New(opts)
	if err != nil {
		return Result{}, err
	}
	return d.AnalyzeUplink(ctx, raw)
}

func decodeHex(input string) ([]byte, error) {
	clean := stripWhitespace(input)
	if strings.HasPrefix(clean, "0X") || strings.HasPrefix(clean, "0x") {
		clean = clean[2:]
	}
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex payload must contain an even number of digits, got %d", len(clean))
	}
	decoded := make([]byte, len(clean)/2)
	if _, err := hex.Decode(decoded, []byte(clean)); err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return decoded, nil
}

// decodeFrame accepts the hex form used on the command line and the base64
// form network servers publish.
func decodeFrame(input string) ([]byte, error) {
	if data, err := decodeHex(input); err == nil {
		return data, nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(input))
	if err != nil {
		return nil, fmt.Errorf("uplink is neither hex nor base64: %w", err)
	}
	return data, nil
}

func stripWhitespace(s string) string {
	builder := strings.Builder{}
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '|' || r == '_' {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
