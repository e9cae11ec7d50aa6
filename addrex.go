package ariadne

import "fmt"

// abreviated keys, so we can more densly report candidate identities in logs

// HexShort returns an abbreviated hex key
func (k AuthorityKey) HexShort() string {
	return fmtAddrex(k.Hex(), 6, 4)
}

// HexShort returns an abbreviated hex key
func (k StakePoolKey) HexShort() string {
	return fmtAddrex(k.Hex(), 6, 4)
}

// return the string formed from the first head 'h' chars and last tail 't'
// chars of x, joined with a single '.'. Precedence is given to the head.
func fmtAddrex(x string, h, t int) string {

	if h < 1 && t < 1 {
		return ""
	}

	if h < 0 {
		h = 0
	}

	if h > len(x) {
		h = len(x)
	}

	if t < 0 {
		t = 0
	}

	// give precedence to the head length
	if len(x)-h < t {
		t = len(x) - h
	}

	start := x[:h]
	end := x[len(x)-t:]

	return fmt.Sprintf("%s.%s", start, end)
}
