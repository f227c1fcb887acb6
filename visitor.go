package osd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Visitor receives exactly one callback per Accept, chosen by the variant.
// Codecs implement Visitor so that a new variant breaks every codec at
// compile time until it is handled.
//
// Payload slices and containers passed to a Visitor are the Value's own
// storage and must not be modified.
type Visitor interface {
	VisitUnknown() error
	VisitBoolean(v bool) error
	VisitInteger(v int32) error
	VisitReal(v float64) error
	VisitString(v string) error
	VisitUUID(v uuid.UUID) error
	VisitDate(v time.Time) error
	VisitURI(v string) error
	VisitBinary(v []byte) error
	VisitArray(v *Array) error
	VisitMap(v *Map) error
}

// Accept dispatches v to the matching Visitor method. A nil v is visited
// as Unknown.
func (v *Value) Accept(vis Visitor) error {
	switch v.Type() {
	case TypeUnknown:
		return vis.VisitUnknown()
	case TypeBoolean:
		return vis.VisitBoolean(v.b)
	case TypeInteger:
		return vis.VisitInteger(v.i)
	case TypeReal:
		return vis.VisitReal(v.r)
	case TypeString:
		return vis.VisitString(v.s)
	case TypeUUID:
		return vis.VisitUUID(v.u)
	case TypeDate:
		return vis.VisitDate(v.t)
	case TypeURI:
		return vis.VisitURI(v.s)
	case TypeBinary:
		return vis.VisitBinary(v.bin)
	case TypeArray:
		return vis.VisitArray(v.arr)
	case TypeMap:
		return vis.VisitMap(v.m)
	default:
		return fmt.Errorf("osd: invalid value type %d", v.typ)
	}
}
