package codec

import (
	"encoding/binary"
	"fmt"
	"reflect"
)

// MaxLength bounds any decoded length prefix.
const MaxLength = 1 << 24

// Unmarshaler is implemented by types that decode themselves. It receives the
// remaining input and returns how many bytes it consumed.
type Unmarshaler interface {
	UnmarshalBinaryRecord(data []byte) (int, error)
}

// Unmarshal decodes data into dst, which must be a non-nil pointer. The whole
// input must be consumed.
func Unmarshal(data []byte, dst any) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrInvalidPointer
	}

	d := decoder{data: data}
	if err := d.unmarshal(v.Elem()); err != nil {
		return err
	}
	if d.off != len(d.data) {
		return ErrTrailingBytes
	}
	return nil
}

type decoder struct {
	data []byte
	off  int
}

var unmarshalerType = reflect.TypeOf((*Unmarshaler)(nil)).Elem()

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || len(d.data)-d.off < n {
		return nil, ErrUnexpectedEOF
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) readLength() (int, error) {
	n, size, err := ReadCompact(d.data[d.off:])
	if err != nil {
		return 0, err
	}
	if n > MaxLength {
		return 0, ErrLengthTooLarge
	}
	d.off += size
	return int(n), nil
}

func (d *decoder) unmarshal(v reflect.Value) error {
	if v.CanAddr() && v.Addr().Type().Implements(unmarshalerType) {
		n, err := v.Addr().Interface().(Unmarshaler).UnmarshalBinaryRecord(d.data[d.off:])
		if err != nil {
			return err
		}
		d.off += n
		return nil
	}

	switch v.Kind() {
	case reflect.Bool:
		b, err := d.take(1)
		if err != nil {
			return err
		}
		switch b[0] {
		case 0x00:
			v.SetBool(false)
		case 0x01:
			v.SetBool(true)
		default:
			return ErrDecodingBool
		}
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		x, err := d.fixed(int(v.Type().Size()))
		if err != nil {
			return err
		}
		v.SetUint(x)
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		size := int(v.Type().Size())
		x, err := d.fixed(size)
		if err != nil {
			return err
		}
		// sign-extend from the encoded width
		shift := 64 - 8*uint(size)
		v.SetInt(int64(x<<shift) >> shift)
	case reflect.Uint, reflect.Int:
		x, size, err := ReadCompact(d.data[d.off:])
		if err != nil {
			return err
		}
		d.off += size
		if v.Kind() == reflect.Int {
			v.SetInt(int64(x))
		} else {
			v.SetUint(x)
		}
	case reflect.String:
		n, err := d.readLength()
		if err != nil {
			return err
		}
		b, err := d.take(n)
		if err != nil {
			return err
		}
		v.SetString(string(b))
	case reflect.Slice:
		return d.decodeSlice(v)
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := d.unmarshal(v.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Ptr:
		b, err := d.take(1)
		if err != nil {
			return err
		}
		switch b[0] {
		case 0x00:
			v.Set(reflect.Zero(v.Type()))
			return nil
		case 0x01:
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			return d.unmarshal(v.Elem())
		default:
			return ErrDecodingMarker
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() || field.Tag.Get("codec") == "-" {
				continue
			}
			if err := d.unmarshal(v.Field(i)); err != nil {
				return fmt.Errorf(errDecodingStructField, field.Name, err)
			}
		}
	default:
		return fmt.Errorf(errUnsupportedType, ErrUnsupportedInput, v.Type())
	}
	return nil
}

func (d *decoder) fixed(size int) (uint64, error) {
	b, err := d.take(size)
	if err != nil {
		return 0, err
	}
	switch size {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(b)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(b)), nil
	default:
		return binary.LittleEndian.Uint64(b), nil
	}
}

func (d *decoder) decodeSlice(v reflect.Value) error {
	n, err := d.readLength()
	if err != nil {
		return err
	}
	if v.Type().Elem() == byteType {
		b, err := d.take(n)
		if err != nil {
			return err
		}
		out := reflect.MakeSlice(v.Type(), n, n)
		reflect.Copy(out, reflect.ValueOf(b))
		v.Set(out)
		return nil
	}

	out := reflect.MakeSlice(v.Type(), 0, 0)
	for i := 0; i < n; i++ {
		elem := reflect.New(v.Type().Elem()).Elem()
		if err := d.unmarshal(elem); err != nil {
			return err
		}
		out = reflect.Append(out, elem)
	}
	v.Set(out)
	return nil
}
