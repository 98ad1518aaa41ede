/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package erf

import (
	"encoding"
	"fmt"
)

// ValueType is the wire type of a provenance tag value. It decides how many bytes a tag needs at
// minimum and how the generic formatter renders it.
type ValueType uint8

const (
	TypeNone ValueType = iota
	TypeBytes
	TypeString
	TypeUint16
	TypeUint32
	TypeUint64
	TypeInt32
	TypeFloat
	TypeIPv4
	TypeIPv6
	TypeEther
	TypeEUI64
	TypeAbsoluteTime
	TypeRelativeTime
	TypeBoolean
)

var valueTypeNames = []string{
	TypeNone:         "none",
	TypeBytes:        "bytes",
	TypeString:       "string",
	TypeUint16:       "uint16",
	TypeUint32:       "uint32",
	TypeUint64:       "uint64",
	TypeInt32:        "int32",
	TypeFloat:        "float",
	TypeIPv4:         "ipv4",
	TypeIPv6:         "ipv6",
	TypeEther:        "ether",
	TypeEUI64:        "eui64",
	TypeAbsoluteTime: "abstime",
	TypeRelativeTime: "reltime",
	TypeBoolean:      "boolean",
}

// LookupValueType returns the value type for its textual name as used in the tag table.
func LookupValueType(name string) (ValueType, error) {
	for i, n := range valueTypeNames {
		if n == name {
			return ValueType(i), nil
		}
	}
	return TypeNone, unknownValueType(name)
}

func (t ValueType) String() string {
	if int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return "unknown"
}

// WireSize is the fixed number of bytes a value of the type occupies, or 0 for variable-length
// types. Timestamps are not fixed-size by type; their expected length is a property of the tag.
func (t ValueType) WireSize() int {
	switch t {
	case TypeUint16:
		return 2
	case TypeUint32, TypeInt32, TypeFloat, TypeIPv4:
		return 4
	case TypeUint64, TypeEUI64:
		return 8
	case TypeIPv6:
		return 16
	case TypeEther:
		return 6
	default:
		return 0
	}
}

// IsInteger reports whether values of the type are decoded as big-endian integers.
func (t ValueType) IsInteger() bool {
	switch t {
	case TypeUint16, TypeUint32, TypeUint64, TypeInt32, TypeBoolean:
		return true
	}
	return false
}

// IsTime reports whether values of the type are ERF fixed-point timestamps.
func (t ValueType) IsTime() bool {
	return t == TypeAbsoluteTime || t == TypeRelativeTime
}

var _ encoding.TextMarshaler = ValueType(0)
var _ encoding.TextUnmarshaler = (*ValueType)(nil)

func (t ValueType) MarshalText() ([]byte, error) {
	if int(t) >= len(valueTypeNames) {
		return nil, fmt.Errorf("%w %d", ErrUnknownValueType, t)
	}
	return []byte(t.String()), nil
}

func (t *ValueType) UnmarshalText(in []byte) error {
	v, err := LookupValueType(string(in))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Display selects the base integer values are rendered in.
type Display uint8

const (
	DisplayDefault Display = iota
	DisplayDec
	DisplayHex
)

func (d Display) String() string {
	switch d {
	case DisplayDec:
		return "dec"
	case DisplayHex:
		return "hex"
	default:
		return ""
	}
}

func LookupDisplay(name string) (Display, error) {
	switch name {
	case "":
		return DisplayDefault, nil
	case "dec":
		return DisplayDec, nil
	case "hex":
		return DisplayHex, nil
	default:
		return DisplayDefault, unknownDisplay(name)
	}
}

func (d Display) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Display) UnmarshalText(in []byte) error {
	v, err := LookupDisplay(string(in))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
