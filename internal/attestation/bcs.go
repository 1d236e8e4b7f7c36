package attestation

import (
	"bytes"
	"math/big"

	"github.com/pkg/errors"
)

var maxU256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// bcsWriter emits Binary Canonical Serialization, the encoding Move contracts decode with
// sui::bcs. Integers are little endian, sequences are ULEB128 length-prefixed.
type bcsWriter struct {
	buf bytes.Buffer
}

func (w *bcsWriter) uleb128(v uint64) {
	for v >= 0x80 {
		w.buf.WriteByte(byte(v) | 0x80)
		v >>= 7
	}
	w.buf.WriteByte(byte(v))
}

func (w *bcsWriter) bytesVec(b []byte) {
	w.uleb128(uint64(len(b)))
	w.buf.Write(b)
}

func (w *bcsWriter) string(s string) {
	w.bytesVec([]byte(s))
}

func (w *bcsWriter) u256(v *big.Int) error {
	if v == nil || v.Sign() < 0 || v.Cmp(maxU256) > 0 {
		return errors.Errorf("amount %v does not fit in u256", v)
	}
	be := v.FillBytes(make([]byte, 32))
	for i := 31; i >= 0; i-- {
		w.buf.WriteByte(be[i])
	}
	return nil
}

// address is written raw, Move addresses are fixed width.
func (w *bcsWriter) address(a []byte) error {
	if len(a) != 32 {
		return errors.Errorf("address must be 32 bytes, got %d", len(a))
	}
	w.buf.Write(a)
	return nil
}

func (w *bcsWriter) Bytes() []byte {
	return w.buf.Bytes()
}
