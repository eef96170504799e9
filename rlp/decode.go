package rlp

import (
	"io"
	"math/big"
	"reflect"
)

// Kind tags the shape of an RLP item.
type Kind int

const (
	Byte   Kind = iota // single byte in [0x00, 0x7f]
	String             // RLP string, including the empty string
	List               // RLP list
)

// Decode reads an RLP value from r into the value pointed to by val.
func Decode(r io.Reader, val interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return DecodeBytes(data, val)
}

// DecodeBytes decodes b into the value pointed to by val. The supported
// target types mirror those of EncodeToBytes.
func DecodeBytes(b []byte, val interface{}) error {
	s := &stream{data: b}
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return ErrNoPointer
	}
	return s.decodeInto(rv.Elem())
}

// stream is a cursor over RLP data with a stack of open list scopes.
type stream struct {
	data  []byte
	pos   int
	lists []int // exclusive end offsets of open lists
}

func (s *stream) limit() int {
	if len(s.lists) > 0 {
		return s.lists[len(s.lists)-1]
	}
	return len(s.data)
}

// readItem consumes the next item and returns its kind and payload.
func (s *stream) readItem() (Kind, []byte, error) {
	lim := s.limit()
	if s.pos >= lim {
		return 0, nil, io.EOF
	}
	prefix := s.data[s.pos]
	switch {
	case prefix <= 0x7f:
		payload := s.data[s.pos : s.pos+1]
		s.pos++
		return Byte, payload, nil

	case prefix <= 0xb7:
		size := int(prefix - 0x80)
		start := s.pos + 1
		if start+size > lim {
			return 0, nil, io.ErrUnexpectedEOF
		}
		if size == 1 && s.data[start] <= 0x7f {
			return 0, nil, ErrCanonSize
		}
		s.pos = start + size
		return String, s.data[start : start+size], nil

	case prefix <= 0xbf:
		payload, err := s.readLongPayload(int(prefix - 0xb7))
		if err != nil {
			return 0, nil, err
		}
		return String, payload, nil

	case prefix <= 0xf7:
		size := int(prefix - 0xc0)
		start := s.pos + 1
		if start+size > lim {
			return 0, nil, io.ErrUnexpectedEOF
		}
		s.pos = start + size
		return List, s.data[start : start+size], nil

	default:
		payload, err := s.readLongPayload(int(prefix - 0xf7))
		if err != nil {
			return 0, nil, err
		}
		return List, payload, nil
	}
}

// readLongPayload handles the > 55 byte string and list forms.
func (s *stream) readLongPayload(lenOfLen int) ([]byte, error) {
	lim := s.limit()
	if s.pos+1+lenOfLen > lim {
		return nil, io.ErrUnexpectedEOF
	}
	sizeBytes := s.data[s.pos+1 : s.pos+1+lenOfLen]
	if len(sizeBytes) > 0 && sizeBytes[0] == 0 {
		return nil, ErrCanonSize
	}
	size := int(readBigEndian(sizeBytes))
	if size <= 55 {
		return nil, ErrCanonSize
	}
	start := s.pos + 1 + lenOfLen
	if start+size > lim {
		return nil, io.ErrUnexpectedEOF
	}
	s.pos = start + size
	return s.data[start : start+size], nil
}

// enterList opens a list scope; items read afterwards come from inside it.
func (s *stream) enterList() error {
	lim := s.limit()
	if s.pos >= lim {
		return io.EOF
	}
	prefix := s.data[s.pos]
	var start, end int
	switch {
	case prefix >= 0xc0 && prefix <= 0xf7:
		start = s.pos + 1
		end = start + int(prefix-0xc0)
	case prefix > 0xf7:
		lenOfLen := int(prefix - 0xf7)
		if s.pos+1+lenOfLen > lim {
			return io.ErrUnexpectedEOF
		}
		sizeBytes := s.data[s.pos+1 : s.pos+1+lenOfLen]
		if len(sizeBytes) > 0 && sizeBytes[0] == 0 {
			return ErrCanonSize
		}
		size := int(readBigEndian(sizeBytes))
		if size <= 55 {
			return ErrCanonSize
		}
		start = s.pos + 1 + lenOfLen
		end = start + size
	default:
		return ErrExpectedList
	}
	if end > lim {
		return io.ErrUnexpectedEOF
	}
	s.lists = append(s.lists, end)
	s.pos = start
	return nil
}

// exitList closes the innermost list scope, requiring it to be fully read.
func (s *stream) exitList() error {
	if len(s.lists) == 0 {
		return ErrExpectedList
	}
	end := s.lists[len(s.lists)-1]
	if s.pos != end {
		return ErrListTrailing
	}
	s.lists = s.lists[:len(s.lists)-1]
	return nil
}

func (s *stream) bytes() ([]byte, error) {
	kind, payload, err := s.readItem()
	if err != nil {
		return nil, err
	}
	if kind == List {
		return nil, ErrExpectedString
	}
	return payload, nil
}

func (s *stream) uint64() (uint64, error) {
	b, err := s.bytes()
	if err != nil {
		return 0, err
	}
	if len(b) > 8 {
		return 0, ErrUintOverflow
	}
	if len(b) > 1 && b[0] == 0 {
		return 0, ErrCanonInt
	}
	return readBigEndian(b), nil
}

func (s *stream) bigInt() (*big.Int, error) {
	b, err := s.bytes()
	if err != nil {
		return nil, err
	}
	if len(b) > 1 && b[0] == 0 {
		return nil, ErrCanonInt
	}
	return new(big.Int).SetBytes(b), nil
}

var bigIntPtrType = reflect.TypeOf((*big.Int)(nil))

func (s *stream) decodeInto(v reflect.Value) error {
	if v.Type() == bigIntType {
		bi, err := s.bigInt()
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(*bi))
		return nil
	}
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		if v.Type() == bigIntPtrType {
			bi, err := s.bigInt()
			if err != nil {
				return err
			}
			v.Set(reflect.ValueOf(bi))
			return nil
		}
		return s.decodeInto(v.Elem())
	}

	switch v.Kind() {
	case reflect.Bool:
		b, err := s.bytes()
		if err != nil {
			return err
		}
		switch {
		case len(b) == 0:
			v.SetBool(false)
		case len(b) == 1 && b[0] == 0x01:
			v.SetBool(true)
		default:
			return ErrCanonInt
		}
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := s.uint64()
		if err != nil {
			return err
		}
		v.SetUint(u)
		return nil

	case reflect.String:
		b, err := s.bytes()
		if err != nil {
			return err
		}
		v.SetString(string(b))
		return nil

	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b, err := s.bytes()
			if err != nil {
				return err
			}
			cp := make([]byte, len(b))
			copy(cp, b)
			v.SetBytes(cp)
			return nil
		}
		return s.decodeList(v)

	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b, err := s.bytes()
			if err != nil {
				return err
			}
			if len(b) != v.Len() {
				return ErrArraySize
			}
			reflect.Copy(v, reflect.ValueOf(b))
			return nil
		}
		return s.decodeList(v)

	case reflect.Struct:
		return s.decodeStruct(v)

	default:
		return ErrUnsupportedType
	}
}

func (s *stream) decodeList(v reflect.Value) error {
	if err := s.enterList(); err != nil {
		return err
	}
	i := 0
	for s.pos < s.lists[len(s.lists)-1] {
		if v.Kind() == reflect.Slice && i >= v.Len() {
			v.Set(reflect.Append(v, reflect.New(v.Type().Elem()).Elem()))
		}
		if i >= v.Len() {
			return ErrArraySize
		}
		if err := s.decodeInto(v.Index(i)); err != nil {
			return err
		}
		i++
	}
	return s.exitList()
}

func (s *stream) decodeStruct(v reflect.Value) error {
	if err := s.enterList(); err != nil {
		return err
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if !t.Field(i).IsExported() {
			continue
		}
		if err := s.decodeInto(v.Field(i)); err != nil {
			return err
		}
	}
	return s.exitList()
}

func readBigEndian(b []byte) uint64 {
	var val uint64
	for _, x := range b {
		val = val<<8 | uint64(x)
	}
	return val
}
