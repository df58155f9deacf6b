// Copyright 2025 R5 Labs
// This file is part of the R5 Core library.
//
// This software is provided "as is", without warranty of any kind,
// express or implied, including but not limited to the warranties
// of merchantability, fitness for a particular purpose and
// noninfringement. In no event shall the authors or copyright
// holders be liable for any claim, damages, or other liability,
// whether in an action of contract, tort or otherwise, arising
// from, out of or in connection with the software or the use or
// other dealings in the software.

package intraindex

import (
	"encoding/binary"

	"github.com/r5-labs/flexledger/block"
)

// Encode returns a deterministic byte encoding of the ordered map,
// used both to persist it and to measure its storage_cost (the
// serialized byte length of a candidate intra-index, per the index
// manager's cost accounting).
func (om *OrderedMap) Encode() []byte {
	var buf []byte
	buf = append(buf, byte(om.Kind))
	switch om.Kind {
	case KindU64:
		for _, e := range om.u64s {
			buf = append(buf, encodeU64(e.Key)...)
			buf = append(buf, encodeTx(e.Tx)...)
		}
	case KindString:
		for _, e := range om.strs {
			buf = append(buf, encodeU64(uint64(len(e.Key)))...)
			buf = append(buf, []byte(e.Key)...)
			buf = append(buf, encodeTx(e.Tx)...)
		}
	}
	return buf
}

func encodeU64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func encodeTx(tx block.Transaction) []byte {
	body := tx.Bytes()
	out := encodeU64(uint64(len(body)))
	return append(out, body...)
}
