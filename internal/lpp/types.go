package lpp

// Standard type identifiers.
const (
	TypeDigitalInput  uint8 = 0x00
	TypeDigitalOutput uint8 = 0x01
	TypeAnalogInput   uint8 = 0x02
	TypeAnalogOutput  uint8 = 0x03
	TypeLuminosity    uint8 = 0x65
	TypePresence      uint8 = 0x66
	TypeTemperature   uint8 = 0x67
	TypeHumidity      uint8 = 0x68
	TypeAccelerometer uint8 = 0x71
	TypeBarometer     uint8 = 0x73
	TypeGyrometer     uint8 = 0x86
	TypeGPS           uint8 = 0x88
)

// DecodeFunc converts exactly Size payload bytes into a field value.
type DecodeFunc func(b []byte) any

// TypeDescriptor describes one data type the decoder understands.
type TypeDescriptor struct {
	ID       uint8
	Name     string
	Size     int
	Standard bool
	Decode   DecodeFunc
}

// standardTypes is shared by every Registry and never written after init.
var standardTypes = map[uint8]TypeDescriptor{}

func init() {
	for _, d := range []TypeDescriptor{
		{ID: TypeDigitalInput, Name: "Digital Input", Size: 1, Decode: decodeUint8},
		{ID: TypeDigitalOutput, Name: "Digital Output", Size: 1, Decode: decodeUint8},
		{ID: TypeAnalogInput, Name: "Analog Input", Size: 2, Decode: scaledInt16(100)},
		{ID: TypeAnalogOutput, Name: "Analog Output", Size: 2, Decode: scaledInt16(100)},
		{ID: TypeLuminosity, Name: "Luminosity", Size: 2, Decode: decodeUint16},
		{ID: TypePresence, Name: "Presence", Size: 1, Decode: decodeUint8},
		{ID: TypeTemperature, Name: "Temperature", Size: 2, Decode: scaledInt16(10)},
		{ID: TypeHumidity, Name: "Humidity", Size: 2, Decode: scaledUint16(10)},
		{ID: TypeAccelerometer, Name: "Accelerometer", Size: 6, Decode: decodeAccelerometer},
		{ID: TypeBarometer, Name: "Barometer", Size: 2, Decode: scaledUint16(10)},
		{ID: TypeGyrometer, Name: "Gyrometer", Size: 2, Decode: scaledInt16(100)},
		{ID: TypeGPS, Name: "GPS", Size: 9, Decode: decodeGPS},
	} {
		d.Standard = true
		standardTypes[d.ID] = d
	}
}

// StandardTypes returns a copy of the built-in descriptors.
func StandardTypes() []TypeDescriptor {
	out := make([]TypeDescriptor, 0, len(standardTypes))
	for _, d := range standardTypes {
		out = append(out, d)
	}
	return out
}

func decodeUint8(b []byte) any {
	return int(b[0])
}

func decodeUint16(b []byte) any {
	return int(Uint16BE(b))
}

func scaledInt16(scale float64) DecodeFunc {
	return func(b []byte) any {
		return float64(Int16BE(b)) / scale
	}
}

func scaledUint16(scale float64) DecodeFunc {
	return func(b []byte) any {
		return float64(Uint16BE(b)) / scale
	}
}

func decodeAccelerometer(b []byte) any {
	return Vector{
		X: float64(Int16BE(b[0:2])) / 1000.0,
		Y: float64(Int16BE(b[2:4])) / 1000.0,
		Z: float64(Int16BE(b[4:6])) / 1000.0,
	}
}

func decodeGPS(b []byte) any {
	return Coordinate{
		Latitude:  float64(Int24BE(b[0:3])) / 10000.0,
		Longitude: float64(Int24BE(b[3:6])) / 10000.0,
		Altitude:  float64(Int24BE(b[6:9])) / 100.0,
	}
}

// decodeRaw is the passthrough used for custom types. The span is copied so
// the result does not alias the caller's buffer.
func decodeRaw(b []byte) any {
	out := make(Raw, len(b))
	copy(out, b)
	return out
}
