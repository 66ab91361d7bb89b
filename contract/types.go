package contract

import (
	"math"
	"strings"

	"github.com/dropbox/abicheck/errors"
)

// PrimitiveType is a fixed-width C integer type.  Contracts are expressed
// only in these types so both sides agree on size and signedness without
// any language-specific representation.
type PrimitiveType string

const (
	Int8   PrimitiveType = "int8"
	Int16  PrimitiveType = "int16"
	Int32  PrimitiveType = "int32"
	Int64  PrimitiveType = "int64"
	Uint8  PrimitiveType = "uint8"
	Uint16 PrimitiveType = "uint16"
	Uint32 PrimitiveType = "uint32"
	Uint64 PrimitiveType = "uint64"
)

type typeInfo struct {
	bits   int
	signed bool
}

var primitiveTypes = map[PrimitiveType]typeInfo{
	Int8:   {8, true},
	Int16:  {16, true},
	Int32:  {32, true},
	Int64:  {64, true},
	Uint8:  {8, false},
	Uint16: {16, false},
	Uint32: {32, false},
	Uint64: {64, false},
}

// ParsePrimitiveType accepts both the short spelling (int32) and the
// <stdint.h> spelling (int32_t).
func ParsePrimitiveType(s string) (PrimitiveType, error) {
	t := PrimitiveType(strings.TrimSuffix(strings.TrimSpace(s), "_t"))
	if _, ok := primitiveTypes[t]; !ok {
		return "", errors.NewKindf(
			errors.InvalidContract,
			"unknown primitive type %q",
			s)
	}
	return t, nil
}

func (t PrimitiveType) Valid() bool {
	_, ok := primitiveTypes[t]
	return ok
}

func (t PrimitiveType) Bits() int {
	return primitiveTypes[t].bits
}

func (t PrimitiveType) Signed() bool {
	return primitiveTypes[t].signed
}

// CType returns the <stdint.h> name, e.g. int32_t.
func (t PrimitiveType) CType() string {
	return string(t) + "_t"
}

// GoType returns the Go type of the same width, e.g. int32.
func (t PrimitiveType) GoType() string {
	return string(t)
}

// CgoType returns the cgo spelling, e.g. C.int32_t.
func (t PrimitiveType) CgoType() string {
	return "C." + t.CType()
}

// Min returns the smallest value representable by the type.
func (t PrimitiveType) Min() int64 {
	info := primitiveTypes[t]
	if !info.signed || info.bits == 0 {
		return 0
	}
	if info.bits == 64 {
		return math.MinInt64
	}
	return -(int64(1) << uint(info.bits-1))
}

// Max returns the largest value representable by the type that also fits in
// a vector value.  uint64 is capped at MaxInt64.
func (t PrimitiveType) Max() int64 {
	info := primitiveTypes[t]
	switch {
	case info.bits == 0:
		return 0
	case info.bits == 64:
		return math.MaxInt64
	case info.signed:
		return int64(1)<<uint(info.bits-1) - 1
	default:
		return int64(1)<<uint(info.bits) - 1
	}
}

// Contains reports whether v is representable by the type.
func (t PrimitiveType) Contains(v int64) bool {
	return t.Valid() && v >= t.Min() && v <= t.Max()
}

func (t PrimitiveType) String() string {
	return t.CType()
}
