package tx

import "crypto/ed25519"

// DefaultMinFeePerByte is used when a node does not report its own rate.
const DefaultMinFeePerByte = 1000

// MinFee returns the minimum fee for the transaction at minFeePerByte.
//
// Every signature slot is filled with a mock 64-byte signature (at least
// one), then the size of the encoding carrying its own fee is priced
// repeatedly until the fee stops growing, since a larger fee can widen
// the varint that encodes it.
func MinFee(transaction Transaction, minFeePerByte uint64) uint64 {
	n := len(transaction.Signatures)
	if n == 0 {
		n = 1
	}
	mock := transaction.clone()
	mock.Signatures = make([][]byte, n)
	for i := range mock.Signatures {
		mock.Signatures[i] = make([]byte, ed25519.SignatureSize)
	}

	var fee uint64
	for {
		mock.Fee = fee
		required := uint64(len(mock.Bytes())) * minFeePerByte
		if required <= fee {
			return fee
		}
		fee = required
	}
}
