// Package plutus implements the Plutus data model used by mainchain datums and
// its canonical CBOR encoding.
package plutus

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"
)

// Data is a Plutus data value. Exactly one of the concrete types below
// implements it: Constr, Map, List, Int, Bytes.
type Data interface {
	isData()
	String() string
}

// Constr is a constructor application, alternative Alt applied to Fields.
type Constr struct {
	Alt    uint64
	Fields []Data
}

// Pair is a single Map entry. Map entries keep their encoded order.
type Pair struct {
	Key   Data
	Value Data
}

// Map is an ordered association list.
type Map []Pair

// List is a list of data values.
type List []Data

// Int is an arbitrary precision integer.
type Int struct {
	V *big.Int
}

// Bytes is a byte string.
type Bytes []byte

func (Constr) isData() {}
func (Map) isData()    {}
func (List) isData()   {}
func (Int) isData()    {}
func (Bytes) isData()  {}

// NewInt returns an Int holding v
func NewInt(v int64) Int {
	return Int{V: big.NewInt(v)}
}

// NewUint returns an Int holding v
func NewUint(v uint64) Int {
	return Int{V: new(big.Int).SetUint64(v)}
}

// NewConstr builds a constructor application
func NewConstr(alt uint64, fields ...Data) Constr {
	if fields == nil {
		fields = []Data{}
	}
	return Constr{Alt: alt, Fields: fields}
}

func (c Constr) String() string {
	s := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		s[i] = f.String()
	}
	return fmt.Sprintf("Constr %d [%s]", c.Alt, strings.Join(s, ", "))
}

func (m Map) String() string {
	s := make([]string, len(m))
	for i, p := range m {
		s[i] = p.Key.String() + ": " + p.Value.String()
	}
	return "{" + strings.Join(s, ", ") + "}"
}

func (l List) String() string {
	s := make([]string, len(l))
	for i, d := range l {
		s[i] = d.String()
	}
	return "[" + strings.Join(s, ", ") + "]"
}

func (i Int) String() string {
	if i.V == nil {
		return "0"
	}
	return i.V.String()
}

func (b Bytes) String() string {
	return fmt.Sprintf("0x%x", []byte(b))
}

// Equal reports whether a and b are structurally identical
func Equal(a, b Data) bool {
	switch x := a.(type) {
	case Constr:
		y, ok := b.(Constr)
		if !ok || x.Alt != y.Alt || len(x.Fields) != len(y.Fields) {
			return false
		}
		for i := range x.Fields {
			if !Equal(x.Fields[i], y.Fields[i]) {
				return false
			}
		}
		return true
	case Map:
		y, ok := b.(Map)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i].Key, y[i].Key) || !Equal(x[i].Value, y[i].Value) {
				return false
			}
		}
		return true
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Int:
		y, ok := b.(Int)
		return ok && x.big().Cmp(y.big()) == 0
	case Bytes:
		y, ok := b.(Bytes)
		return ok && bytes.Equal(x, y)
	}
	return false
}

func (i Int) big() *big.Int {
	if i.V == nil {
		return new(big.Int)
	}
	return i.V
}
