package plutus

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnexpectedShape = errors.New("plutus: unexpected datum shape")
)

// Schema is a datum as published on the mainchain, either in the legacy
// (unversioned) layout or in the versioned [datum, appendix, version] layout.
// Decoders switch on the concrete type before touching any fields.
type Schema interface {
	isSchema()
}

// Legacy is a datum that predates schema versioning.
type Legacy struct {
	Data Data
}

// Versioned carries an immutable Datum, a mutable Appendix and the schema
// Version that says how to read both.
type Versioned struct {
	Datum    Data
	Appendix Data
	Version  uint64
}

func (Legacy) isSchema()    {}
func (Versioned) isSchema() {}

// ParseSchema classifies d. Anything that is not a three element list ending
// in a non negative integer is legacy.
func ParseSchema(d Data) Schema {
	l, ok := d.(List)
	if !ok || len(l) != 3 {
		return Legacy{Data: d}
	}
	v, ok := l[2].(Int)
	if !ok || v.big().Sign() < 0 || !v.big().IsUint64() {
		return Legacy{Data: d}
	}
	return Versioned{Datum: l[0], Appendix: l[1], Version: v.big().Uint64()}
}

// AsConstr returns the fields of d if it is constructor alt with at least
// minFields fields.
func AsConstr(d Data, alt uint64, minFields int) ([]Data, error) {
	c, ok := d.(Constr)
	if !ok {
		return nil, fmt.Errorf("%w: want constructor, have %T", ErrUnexpectedShape, d)
	}
	if c.Alt != alt {
		return nil, fmt.Errorf("%w: want constructor %d, have %d", ErrUnexpectedShape, alt, c.Alt)
	}
	if len(c.Fields) < minFields {
		return nil, fmt.Errorf(
			"%w: constructor %d has %d fields, want at least %d", ErrUnexpectedShape, alt, len(c.Fields), minFields)
	}
	return c.Fields, nil
}

// AsList returns the items of d if it is a list
func AsList(d Data) ([]Data, error) {
	l, ok := d.(List)
	if !ok {
		return nil, fmt.Errorf("%w: want list, have %T", ErrUnexpectedShape, d)
	}
	return l, nil
}

// AsBytes returns the bytes of d if it is a byte string
func AsBytes(d Data) ([]byte, error) {
	b, ok := d.(Bytes)
	if !ok {
		return nil, fmt.Errorf("%w: want bytes, have %T", ErrUnexpectedShape, d)
	}
	return b, nil
}

// AsUint16 returns d if it is an integer in the uint16 range
func AsUint16(d Data) (uint16, error) {
	v, err := AsUint64(d)
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %d overflows uint16", ErrUnexpectedShape, v)
	}
	return uint16(v), nil
}

// AsUint64 returns d if it is a non negative integer that fits a uint64
func AsUint64(d Data) (uint64, error) {
	i, ok := d.(Int)
	if !ok {
		return 0, fmt.Errorf("%w: want integer, have %T", ErrUnexpectedShape, d)
	}
	if i.big().Sign() < 0 || !i.big().IsUint64() {
		return 0, fmt.Errorf("%w: integer %s out of range", ErrUnexpectedShape, i.big())
	}
	return i.big().Uint64(), nil
}
