package plutus

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

var (
	bigOne = big.NewInt(1)

	ErrMalformed      = errors.New("plutus: malformed cbor")
	ErrUnsupportedTag = errors.New("plutus: unsupported cbor tag")
	ErrUnsupportedTyp = errors.New("plutus: unsupported cbor major type")
)

// Decode parses exactly one Plutus data value from b.
func Decode(b []byte) (Data, error) {
	if err := cbor.Valid(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return decodeItem(b)
}

func decodeItem(raw []byte) (Data, error) {
	if len(raw) == 0 {
		return nil, ErrMalformed
	}

	switch major := raw[0] >> 5; major {
	case 0, 1:
		v := new(big.Int)
		if err := cbor.Unmarshal(raw, v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Int{V: v}, nil
	case majorBytes:
		var b []byte
		if err := cbor.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if b == nil {
			b = []byte{}
		}
		return Bytes(b), nil
	case majorArray:
		items, err := decodeSeq(raw)
		if err != nil {
			return nil, err
		}
		return List(items), nil
	case majorMap:
		return decodeMap(raw)
	case 6:
		return decodeTagged(raw)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedTyp, major)
	}
}

func decodeTagged(raw []byte) (Data, error) {

	var t cbor.RawTag
	if err := cbor.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch {
	case t.Number >= smallConstrTagBase && t.Number < smallConstrTagBase+7:
		fields, err := decodeSeq(t.Content)
		if err != nil {
			return nil, err
		}
		return NewConstr(t.Number-smallConstrTagBase, fields...), nil

	case t.Number >= bigConstrTagBase && t.Number < bigConstrTagBase+121:
		fields, err := decodeSeq(t.Content)
		if err != nil {
			return nil, err
		}
		return NewConstr(t.Number-bigConstrTagBase+7, fields...), nil

	case t.Number == anyConstrTag:
		var parts []cbor.RawMessage
		if err := cbor.Unmarshal(t.Content, &parts); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: constructor needs [alt, fields], have %d items", ErrMalformed, len(parts))
		}
		var alt uint64
		if err := cbor.Unmarshal(parts[0], &alt); err != nil {
			return nil, fmt.Errorf("%w: constructor alternative: %v", ErrMalformed, err)
		}
		fields, err := decodeSeq(parts[1])
		if err != nil {
			return nil, err
		}
		return NewConstr(alt, fields...), nil

	case t.Number == tagPosBignum || t.Number == tagNegBignum:
		v := new(big.Int)
		if err := cbor.Unmarshal(raw, v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Int{V: v}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnsupportedTag, t.Number)
}

func decodeSeq(raw []byte) ([]Data, error) {
	var items []cbor.RawMessage
	if err := cbor.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: expected array: %v", ErrMalformed, err)
	}
	ds := make([]Data, len(items))
	for i, item := range items {
		d, err := decodeItem(item)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}

// decodeMap re-heads the map as an array of alternating keys and values so
// that the encoded entry order survives. Decoding into a Go map would lose it.
func decodeMap(raw []byte) (Data, error) {

	n, headLen, indefinite, err := readHead(raw)
	if err != nil {
		return nil, err
	}

	var flat []byte
	if indefinite {
		flat = append([]byte{indefArray}, raw[headLen:]...)
	} else {
		flat = appendHead(nil, majorArray, 2*n)
		flat = append(flat, raw[headLen:]...)
	}

	items, err := decodeSeq(flat)
	if err != nil {
		return nil, err
	}
	if len(items)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of map items", ErrMalformed)
	}

	m := make(Map, 0, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		m = append(m, Pair{Key: items[i], Value: items[i+1]})
	}
	return m, nil
}

func readHead(raw []byte) (uint64, int, bool, error) {
	if len(raw) == 0 {
		return 0, 0, false, ErrMalformed
	}
	ai := raw[0] & 0x1f
	switch {
	case ai < 24:
		return uint64(ai), 1, false, nil
	case ai == 31:
		return 0, 1, true, nil
	case ai > 27:
		return 0, 0, false, ErrMalformed
	}
	size := 1 << (ai - 24)
	if len(raw) < 1+size {
		return 0, 0, false, ErrMalformed
	}
	var n uint64
	for _, b := range raw[1 : 1+size] {
		n = n<<8 | uint64(b)
	}
	return n, 1 + size, false, nil
}
