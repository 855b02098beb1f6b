package kelfutil

// UnitSize is the granularity of XOR folding, equal to the DES block size.
const UnitSize = 8

// XOR sets dst[i] = a[i] ^ b[i] for every index of dst.
//
// a and b must be at least as long as dst. Any of them may alias.
func XOR(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}

// Fold XORs every UnitSize-byte unit of data into digest, in order.
//
// A trailing partial unit is folded into the first bytes of digest.
func Fold(digest []byte, data []byte) {
	for len(data) > 0 {
		n := UnitSize
		if len(data) < n {
			n = len(data)
		}
		XOR(digest[:n], digest, data)
		data = data[n:]
	}
}
