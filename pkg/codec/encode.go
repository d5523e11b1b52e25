// Package codec implements the deterministic binary layout used for every
// persisted ledger record.
//
// Fixed-size unsigned and signed integers are little-endian at their natural
// width, int and uint use the compact natural form, strings and byte slices
// carry a compact length prefix, arrays are written element by element,
// pointers are options preceded by a 0x00/0x01 marker and structs are the
// concatenation of their exported fields in declaration order.
package codec

import (
	"encoding/binary"
	"fmt"
	"reflect"
)

// Marshal returns the encoding of v.
func Marshal(v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	// A top-level pointer is the value it points to, mirroring Unmarshal.
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, ErrInvalidPointer
		}
		rv = rv.Elem()
	}

	e := encoder{}
	if err := e.marshal(rv); err != nil {
		return nil, err
	}
	return e.buf, nil
}

type encoder struct {
	buf []byte
}

var byteType = reflect.TypeOf(byte(0))

func (e *encoder) marshal(v reflect.Value) error {
	if !v.IsValid() {
		return fmt.Errorf(errUnsupportedType, ErrUnsupportedInput, "nil interface")
	}

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			e.buf = append(e.buf, 0x01)
		} else {
			e.buf = append(e.buf, 0x00)
		}
	case reflect.Uint8:
		e.buf = append(e.buf, uint8(v.Uint()))
	case reflect.Uint16:
		e.buf = binary.LittleEndian.AppendUint16(e.buf, uint16(v.Uint()))
	case reflect.Uint32:
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(v.Uint()))
	case reflect.Uint64:
		e.buf = binary.LittleEndian.AppendUint64(e.buf, v.Uint())
	case reflect.Int8:
		e.buf = append(e.buf, uint8(v.Int()))
	case reflect.Int16:
		e.buf = binary.LittleEndian.AppendUint16(e.buf, uint16(v.Int()))
	case reflect.Int32:
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(v.Int()))
	case reflect.Int64:
		e.buf = binary.LittleEndian.AppendUint64(e.buf, uint64(v.Int()))
	case reflect.Uint:
		e.buf = AppendCompact(e.buf, v.Uint())
	case reflect.Int:
		if v.Int() < 0 {
			return fmt.Errorf(errUnsupportedType, ErrUnsupportedInput, "negative int")
		}
		e.buf = AppendCompact(e.buf, uint64(v.Int()))
	case reflect.String:
		e.buf = AppendCompact(e.buf, uint64(v.Len()))
		e.buf = append(e.buf, v.String()...)
	case reflect.Slice:
		return e.encodeSlice(v)
	case reflect.Array:
		return e.encodeArray(v)
	case reflect.Ptr:
		if v.IsNil() {
			e.buf = append(e.buf, 0x00)
			return nil
		}
		e.buf = append(e.buf, 0x01)
		return e.marshal(v.Elem())
	case reflect.Struct:
		return e.encodeStruct(v)
	default:
		return fmt.Errorf(errUnsupportedType, ErrUnsupportedInput, v.Type())
	}
	return nil
}

func (e *encoder) encodeSlice(v reflect.Value) error {
	e.buf = AppendCompact(e.buf, uint64(v.Len()))
	if v.Type().Elem() == byteType {
		e.buf = append(e.buf, v.Bytes()...)
		return nil
	}
	for i := 0; i < v.Len(); i++ {
		if err := e.marshal(v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) encodeArray(v reflect.Value) error {
	if v.Type().Elem().Kind() == reflect.Uint8 {
		for i := 0; i < v.Len(); i++ {
			e.buf = append(e.buf, uint8(v.Index(i).Uint()))
		}
		return nil
	}
	for i := 0; i < v.Len(); i++ {
		if err := e.marshal(v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) encodeStruct(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Tag.Get("codec") == "-" {
			continue
		}
		if err := e.marshal(v.Field(i)); err != nil {
			return fmt.Errorf(errEncodingStructField, field.Name, err)
		}
	}
	return nil
}
