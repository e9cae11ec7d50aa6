package plutus

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

const (
	// constructors 0..6 use tags 121..127, 7..127 use 1280..1400 and
	// anything else is tag 102 wrapping [alt, fields]
	smallConstrTagBase = 121
	bigConstrTagBase   = 1280
	anyConstrTag       = 102

	tagPosBignum = 2
	tagNegBignum = 3

	bytesChunkSize = 64

	majorBytes = 2
	majorArray = 4
	majorMap   = 5

	indefArray = 0x9f
	indefBytes = 0x5f
	breakCode  = 0xff
)

var (
	ErrNilData = errors.New("plutus: nil data")
)

// Encode produces the canonical Plutus CBOR encoding of d. Non-empty lists and
// constructor fields are indefinite length arrays, byte strings longer than
// 64 bytes are chunked and integers outside the int64 range are bignums.
func Encode(d Data) ([]byte, error) {
	return appendData(nil, d)
}

// MustEncode is Encode for values that are known to be encodable.
func MustEncode(d Data) []byte {
	b, err := Encode(d)
	if err != nil {
		panic(err)
	}
	return b
}

func appendData(buf []byte, d Data) ([]byte, error) {
	switch v := d.(type) {
	case Constr:
		return appendConstr(buf, v)
	case Map:
		buf = appendHead(buf, majorMap, uint64(len(v)))
		var err error
		for _, p := range v {
			if buf, err = appendData(buf, p.Key); err != nil {
				return nil, err
			}
			if buf, err = appendData(buf, p.Value); err != nil {
				return nil, err
			}
		}
		return buf, nil
	case List:
		return appendSeq(buf, v)
	case Int:
		return appendInt(buf, v)
	case Bytes:
		return appendBytes(buf, v)
	case nil:
		return nil, ErrNilData
	}
	return nil, fmt.Errorf("plutus: unsupported data type %T", d)
}

func appendConstr(buf []byte, c Constr) ([]byte, error) {

	var tag uint64
	switch {
	case c.Alt < 7:
		tag = smallConstrTagBase + c.Alt
	case c.Alt < 128:
		tag = bigConstrTagBase + c.Alt - 7
	default:
		tag = anyConstrTag
	}

	var content []byte
	var err error
	if tag == anyConstrTag {
		content = appendHead(nil, majorArray, 2)
		b, err := cbor.Marshal(c.Alt)
		if err != nil {
			return nil, err
		}
		content = append(content, b...)
		if content, err = appendSeq(content, c.Fields); err != nil {
			return nil, err
		}
	} else if content, err = appendSeq(nil, c.Fields); err != nil {
		return nil, err
	}

	b, err := cbor.Marshal(cbor.RawTag{Number: tag, Content: content})
	if err != nil {
		return nil, err
	}
	return append(buf, b...), nil
}

func appendSeq(buf []byte, ds []Data) ([]byte, error) {
	if len(ds) == 0 {
		return appendHead(buf, majorArray, 0), nil
	}
	buf = append(buf, indefArray)
	var err error
	for _, d := range ds {
		if buf, err = appendData(buf, d); err != nil {
			return nil, err
		}
	}
	return append(buf, breakCode), nil
}

func appendInt(buf []byte, i Int) ([]byte, error) {
	v := i.big()
	if v.IsInt64() {
		b, err := cbor.Marshal(v.Int64())
		if err != nil {
			return nil, err
		}
		return append(buf, b...), nil
	}

	var tag uint64 = tagPosBignum
	mag := new(big.Int).Set(v)
	if v.Sign() < 0 {
		// negative bignums carry -1 - n
		tag = tagNegBignum
		mag.Neg(mag).Sub(mag, bigOne)
	}
	content, err := appendBytes(nil, mag.Bytes())
	if err != nil {
		return nil, err
	}
	b, err := cbor.Marshal(cbor.RawTag{Number: tag, Content: content})
	if err != nil {
		return nil, err
	}
	return append(buf, b...), nil
}

func appendBytes(buf []byte, b []byte) ([]byte, error) {
	if len(b) == 0 {
		// a nil slice would otherwise marshal as null
		return appendHead(buf, majorBytes, 0), nil
	}
	if len(b) <= bytesChunkSize {
		enc, err := cbor.Marshal(b)
		if err != nil {
			return nil, err
		}
		return append(buf, enc...), nil
	}
	buf = append(buf, indefBytes)
	for len(b) > 0 {
		n := bytesChunkSize
		if len(b) < n {
			n = len(b)
		}
		buf = appendHead(buf, majorBytes, uint64(n))
		buf = append(buf, b[:n]...)
		b = b[n:]
	}
	return append(buf, breakCode), nil
}

// appendHead writes a definite length CBOR head. The codec library has no
// API for emitting bare heads, which indefinite containers need.
func appendHead(buf []byte, major byte, n uint64) []byte {
	m := major << 5
	switch {
	case n < 24:
		return append(buf, m|byte(n))
	case n <= 0xff:
		return append(buf, m|24, byte(n))
	case n <= 0xffff:
		return append(buf, m|25, byte(n>>8), byte(n))
	case n <= 0xffffffff:
		return append(buf, m|26, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	}
	return append(buf, m|27,
		byte(n>>56), byte(n>>48), byte(n>>40), byte(n>>32),
		byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}
