// Package lpp decodes Cayenne Low Power Payload buffers.
//
// A payload is a flat sequence of records, each made of a one-byte channel, a
// one-byte type identifier and a fixed number of big-endian data bytes whose
// length is implied by the type:
//
//	CH TYPE DATA... CH TYPE DATA...
//
// Decoding is all-or-nothing: any malformed record fails the whole payload.
package lpp

import "fmt"

const headerSize = 2

// Record is one framed (channel, type, data) unit of a payload.
type Record struct {
	Channel uint8
	Type    TypeDescriptor
	Offset  int
	Data    []byte
}

// Key returns the output field name for the record.
func (r Record) Key() string {
	return FieldKey(r.Type.Name, r.Channel)
}

// FieldKey builds the "{name}_{channel}" output key.
func FieldKey(name string, channel uint8) string {
	return fmt.Sprintf("%s_%d", name, channel)
}

// Decoder turns LPP payloads into Fields.
type Decoder struct {
	registry *Registry
}

// NewDecoder returns a decoder that knows the standard types.
func NewDecoder() *Decoder {
	return &Decoder{registry: NewRegistry()}
}

// AddDataType teaches the decoder a custom type whose bytes are passed
// through undecoded. The first registration of an id wins.
func (d *Decoder) AddDataType(id uint8, name string, size int) error {
	return d.registry.Register(id, name, size)
}

// Types lists every type the decoder knows, ordered by id.
func (d *Decoder) Types() []TypeDescriptor {
	return d.registry.Types()
}

// Records frames the payload without converting values. Data slices alias
// the payload.
func (d *Decoder) Records(payload []byte) ([]Record, error) {
	if len(payload) == 0 {
		return nil, ErrPayloadEmpty
	}
	records := make([]Record, 0, 4)
	i := 0
	for len(payload)-i >= headerSize {
		channel := payload[i]
		typeID := payload[i+1]
		i += headerSize

		desc, ok := d.registry.Lookup(typeID)
		if !ok {
			return nil, ErrUnknownDataType
		}
		if len(payload)-i < desc.Size {
			return nil, ErrBadPayloadFormat
		}
		records = append(records, Record{
			Channel: channel,
			Type:    desc,
			Offset:  i - headerSize,
			Data:    payload[i : i+desc.Size],
		})
		i += desc.Size
	}
	if i != len(payload) {
		return nil, ErrBadPayloadFormat
	}
	return records, nil
}

// Decode converts every record of the payload into a named field. Repeated
// channel/type pairs overwrite earlier values.
func (d *Decoder) Decode(payload []byte) (*Fields, error) {
	records, err := d.Records(payload)
	if err != nil {
		return nil, err
	}
	fields := NewFields()
	for _, rec := range records {
		value, err := decodeValue(rec)
		if err != nil {
			return nil, err
		}
		fields.Set(rec.Key(), value)
	}
	return fields, nil
}

func decodeValue(rec Record) (any, error) {
	if !rec.Type.Standard {
		return decodeRaw(rec.Data), nil
	}
	if rec.Type.Decode == nil {
		return nil, ErrUnknownDataType
	}
	return rec.Type.Decode(rec.Data), nil
}
