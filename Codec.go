package btre

import "bytes"
import "encoding/binary"
import "encoding/json"
import "math"
import "math/big"
import "strings"

import "github.com/pkg/errors"


//============================================= BTre Codecs


// Codec translates a user type to and from its on disk byte representation.
//	Encode produces the raw bytes for a value and Decode reverses it. Variable
//	length codecs return 0 from FixedSize and their bytes are framed with a
//	4 byte little-endian length prefix by the node codec. Compare defines the
//	codec natural total order, which the engine uses for keys unless an
//	override comparator is supplied in the options.
type Codec interface {
	Tag() string
	Encode(v any) ([]byte, error)
	Decode(data []byte) (any, error)
	Size(v any) (int, error)
	FixedSize() int
	Compare(a, b any) int
}


// normalizeField
//	Round trip a value through its codec so the in-memory form always matches
//	what a decode of the stored bytes produces. Keeps cached nodes and nodes
//	read back from disk type identical.
func normalizeField(codec Codec, v any) (any, error) {
	encoded, encErr := codec.Encode(v)
	if encErr != nil { return nil, encErr }

	return codec.Decode(encoded)
}


//============================================= Int32 Codec


// Int32Codec encodes 32 bit signed integers as 4 little-endian bytes.
type Int32Codec struct{}

func (c Int32Codec) Tag() string { return "int32" }

func (c Int32Codec) FixedSize() int { return 4 }

func (c Int32Codec) Size(v any) (int, error) { return 4, nil }

func (c Int32Codec) Encode(v any) ([]byte, error) {
	i, castErr := toInt32(v)
	if castErr != nil { return nil, castErr }

	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(i))
	return buf, nil
}

func (c Int32Codec) Decode(data []byte) (any, error) {
	if len(data) != 4 { return nil, wrapCodec(errors.New("expected 4 bytes"), "decode int32") }
	return int32(binary.LittleEndian.Uint32(data)), nil
}

func (c Int32Codec) Compare(a, b any) int {
	ai, _ := toInt32(a)
	bi, _ := toInt32(b)

	switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
	}
}

// toInt32
//	Accept the int widths a caller will naturally pass for an int32 key.
func toInt32(v any) (int32, error) {
	switch i := v.(type) {
		case int32:
			return i, nil
		case int:
			return int32(i), nil
		case int64:
			return int32(i), nil
		default:
			return 0, wrapCodec(errors.Errorf("unsupported type %T", v), "encode int32")
	}
}


//============================================= Float64 Codec


// Float64Codec encodes IEEE-754 64 bit floats as 8 little-endian bytes.
type Float64Codec struct{}

func (c Float64Codec) Tag() string { return "float64" }

func (c Float64Codec) FixedSize() int { return 8 }

func (c Float64Codec) Size(v any) (int, error) { return 8, nil }

func (c Float64Codec) Encode(v any) ([]byte, error) {
	f, castErr := toFloat64(v)
	if castErr != nil { return nil, castErr }

	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(f))
	return buf, nil
}

func (c Float64Codec) Decode(data []byte) (any, error) {
	if len(data) != 8 { return nil, wrapCodec(errors.New("expected 8 bytes"), "decode float64") }
	return math.Float64frombits(binary.LittleEndian.Uint64(data)), nil
}

func (c Float64Codec) Compare(a, b any) int {
	af, _ := toFloat64(a)
	bf, _ := toFloat64(b)

	switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
	}
}

func toFloat64(v any) (float64, error) {
	switch f := v.(type) {
		case float64:
			return f, nil
		case float32:
			return float64(f), nil
		case int:
			return float64(f), nil
		default:
			return 0, wrapCodec(errors.Errorf("unsupported type %T", v), "encode float64")
	}
}


//============================================= String Codec


// StringCodec encodes strings as raw UTF-8 bytes. The node codec frames the
// bytes with the length prefix since the codec is variable length.
type StringCodec struct{}

func (c StringCodec) Tag() string { return "string" }

func (c StringCodec) FixedSize() int { return 0 }

func (c StringCodec) Size(v any) (int, error) {
	s, castErr := toString(v)
	if castErr != nil { return 0, castErr }

	return len(s), nil
}

func (c StringCodec) Encode(v any) ([]byte, error) {
	s, castErr := toString(v)
	if castErr != nil { return nil, castErr }

	return []byte(s), nil
}

func (c StringCodec) Decode(data []byte) (any, error) {
	return string(data), nil
}

func (c StringCodec) Compare(a, b any) int {
	as, _ := toString(a)
	bs, _ := toString(b)

	return strings.Compare(as, bs)
}

func toString(v any) (string, error) {
	s, ok := v.(string)
	if ! ok { return "", wrapCodec(errors.Errorf("unsupported type %T", v), "encode string") }

	return s, nil
}


//============================================= Bool Codec


// BoolCodec encodes booleans as a single byte, 0 or 1.
type BoolCodec struct{}

func (c BoolCodec) Tag() string { return "bool" }

func (c BoolCodec) FixedSize() int { return 1 }

func (c BoolCodec) Size(v any) (int, error) { return 1, nil }

func (c BoolCodec) Encode(v any) ([]byte, error) {
	b, ok := v.(bool)
	if ! ok { return nil, wrapCodec(errors.Errorf("unsupported type %T", v), "encode bool") }

	if b { return []byte{1}, nil }
	return []byte{0}, nil
}

func (c BoolCodec) Decode(data []byte) (any, error) {
	if len(data) != 1 { return nil, wrapCodec(errors.New("expected 1 byte"), "decode bool") }
	return data[0] != 0, nil
}

func (c BoolCodec) Compare(a, b any) int {
	ab, _ := a.(bool)
	bb, _ := b.(bool)

	switch {
		case ab == bb:
			return 0
		case ! ab:
			return -1
		default:
			return 1
	}
}


//============================================= BigInt Codec


// BigIntCodec encodes arbitrary precision integers as a sign byte followed by
// the length-prefixed big-endian magnitude.
type BigIntCodec struct{}

func (c BigIntCodec) Tag() string { return "bigint" }

func (c BigIntCodec) FixedSize() int { return 0 }

func (c BigIntCodec) Size(v any) (int, error) {
	i, castErr := toBigInt(v)
	if castErr != nil { return 0, castErr }

	return 1 + LengthPrefixSize + len(i.Bytes()), nil
}

func (c BigIntCodec) Encode(v any) ([]byte, error) {
	i, castErr := toBigInt(v)
	if castErr != nil { return nil, castErr }

	var sign byte
	if i.Sign() < 0 { sign = 1 }

	magnitude := i.Bytes()

	buf := make([]byte, 1 + LengthPrefixSize, 1 + LengthPrefixSize + len(magnitude))
	buf[0] = sign
	binary.LittleEndian.PutUint32(buf[1:], uint32(len(magnitude)))

	return append(buf, magnitude...), nil
}

func (c BigIntCodec) Decode(data []byte) (any, error) {
	if len(data) < 1 + LengthPrefixSize { return nil, wrapCodec(errors.New("truncated bigint"), "decode bigint") }

	magLen := binary.LittleEndian.Uint32(data[1:])
	if int(magLen) != len(data) - 1 - LengthPrefixSize { return nil, wrapCodec(errors.New("bigint magnitude length mismatch"), "decode bigint") }

	i := new(big.Int).SetBytes(data[1 + LengthPrefixSize:])
	if data[0] != 0 { i.Neg(i) }

	return i, nil
}

func (c BigIntCodec) Compare(a, b any) int {
	ai, _ := toBigInt(a)
	bi, _ := toBigInt(b)

	return ai.Cmp(bi)
}

func toBigInt(v any) (*big.Int, error) {
	switch i := v.(type) {
		case *big.Int:
			return i, nil
		case int:
			return big.NewInt(int64(i)), nil
		case int64:
			return big.NewInt(i), nil
		default:
			return nil, wrapCodec(errors.Errorf("unsupported type %T", v), "encode bigint")
	}
}


//============================================= JSON Codec


// JSONCodec encodes arbitrary structured values as UTF-8 JSON documents.
// The natural order is the byte order of the encoded documents.
type JSONCodec struct{}

func (c JSONCodec) Tag() string { return "json" }

func (c JSONCodec) FixedSize() int { return 0 }

func (c JSONCodec) Size(v any) (int, error) {
	encoded, encErr := c.Encode(v)
	if encErr != nil { return 0, encErr }

	return len(encoded), nil
}

func (c JSONCodec) Encode(v any) ([]byte, error) {
	encoded, marshalErr := json.Marshal(v)
	if marshalErr != nil { return nil, wrapCodec(marshalErr, "encode json") }

	return encoded, nil
}

func (c JSONCodec) Decode(data []byte) (any, error) {
	var v any
	unmarshalErr := json.Unmarshal(data, &v)
	if unmarshalErr != nil { return nil, wrapCodec(unmarshalErr, "decode json") }

	return v, nil
}

func (c JSONCodec) Compare(a, b any) int {
	aEnc, _ := c.Encode(a)
	bEnc, _ := c.Encode(b)

	return bytes.Compare(aEnc, bEnc)
}


//============================================= Composite Codec


// CompositeCodec concatenates a fixed ordering of field codecs. Each variable
// length field is framed with its own length prefix inside the composite
// encoding so the fields can be split apart again on decode. Values are
// passed as []any with one element per field.
type CompositeCodec struct {
	CompositeTag string
	Fields       []Codec
}

func (c CompositeCodec) Tag() string {
	if c.CompositeTag != "" { return c.CompositeTag }
	return "composite"
}

func (c CompositeCodec) FixedSize() int {
	total := 0
	for _, field := range c.Fields {
		fixed := field.FixedSize()
		if fixed == 0 { return 0 }
		total += fixed
	}

	return total
}

func (c CompositeCodec) Size(v any) (int, error) {
	values, castErr := c.fieldValues(v)
	if castErr != nil { return 0, castErr }

	total := 0
	for idx, field := range c.Fields {
		size, sizeErr := field.Size(values[idx])
		if sizeErr != nil { return 0, sizeErr }

		if field.FixedSize() == 0 { total += LengthPrefixSize }
		total += size
	}

	return total, nil
}

func (c CompositeCodec) Encode(v any) ([]byte, error) {
	values, castErr := c.fieldValues(v)
	if castErr != nil { return nil, castErr }

	var encoded []byte
	for idx, field := range c.Fields {
		fieldBytes, encErr := field.Encode(values[idx])
		if encErr != nil { return nil, encErr }

		if field.FixedSize() == 0 {
			prefix := make([]byte, LengthPrefixSize)
			binary.LittleEndian.PutUint32(prefix, uint32(len(fieldBytes)))
			encoded = append(encoded, prefix...)
		}

		encoded = append(encoded, fieldBytes...)
	}

	return encoded, nil
}

func (c CompositeCodec) Decode(data []byte) (any, error) {
	values := make([]any, len(c.Fields))
	curr := 0

	for idx, field := range c.Fields {
		var fieldBytes []byte

		fixed := field.FixedSize()
		if fixed == 0 {
			if curr + LengthPrefixSize > len(data) { return nil, wrapCodec(errors.New("truncated composite field prefix"), "decode composite") }

			fieldLen := int(binary.LittleEndian.Uint32(data[curr:]))
			curr += LengthPrefixSize

			if curr + fieldLen > len(data) { return nil, wrapCodec(errors.New("truncated composite field"), "decode composite") }
			fieldBytes = data[curr:curr + fieldLen]
			curr += fieldLen
		} else {
			if curr + fixed > len(data) { return nil, wrapCodec(errors.New("truncated composite field"), "decode composite") }
			fieldBytes = data[curr:curr + fixed]
			curr += fixed
		}

		value, decErr := field.Decode(fieldBytes)
		if decErr != nil { return nil, decErr }

		values[idx] = value
	}

	if curr != len(data) { return nil, wrapCodec(errors.New("trailing bytes after composite fields"), "decode composite") }
	return values, nil
}

func (c CompositeCodec) Compare(a, b any) int {
	aValues, aErr := c.fieldValues(a)
	bValues, bErr := c.fieldValues(b)
	if aErr != nil || bErr != nil { return 0 }

	for idx, field := range c.Fields {
		cmp := field.Compare(aValues[idx], bValues[idx])
		if cmp != 0 { return cmp }
	}

	return 0
}

func (c CompositeCodec) fieldValues(v any) ([]any, error) {
	values, ok := v.([]any)
	if ! ok { return nil, wrapCodec(errors.Errorf("unsupported type %T", v), "encode composite") }
	if len(values) != len(c.Fields) { return nil, wrapCodec(errors.New("composite field count mismatch"), "encode composite") }

	return values, nil
}
