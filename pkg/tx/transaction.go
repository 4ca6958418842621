// Package tx defines the Klayr transaction envelope and its signing and
// fee rules.
package tx

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Klingon-tech/klayr-reg/pkg/codec"
	"github.com/Klingon-tech/klayr-reg/pkg/crypto"
)

// Transaction field numbers.
const (
	fieldModule          = 1
	fieldCommand         = 2
	fieldNonce           = 3
	fieldFee             = 4
	fieldSenderPublicKey = 5
	fieldParams          = 6
	fieldSignatures      = 7
)

// Transaction is an immutable Klayr transaction. Methods that change a
// field return a new value and leave the receiver untouched.
type Transaction struct {
	Module          string
	Command         string
	Nonce           uint64
	Fee             uint64
	SenderPublicKey []byte
	Params          []byte
	Signatures      [][]byte
}

// SigningBytes returns the encoding without signatures. This is the
// payload the sender signs.
func (tx Transaction) SigningBytes() []byte {
	return tx.writeUnsigned().Result()
}

// Bytes returns the full encoding including signatures.
func (tx Transaction) Bytes() []byte {
	return tx.writeUnsigned().RepeatedBytes(fieldSignatures, tx.Signatures).Result()
}

func (tx Transaction) writeUnsigned() *codec.Writer {
	return codec.NewWriter().
		String(fieldModule, tx.Module).
		String(fieldCommand, tx.Command).
		Uint64(fieldNonce, tx.Nonce).
		Uint64(fieldFee, tx.Fee).
		Bytes(fieldSenderPublicKey, tx.SenderPublicKey).
		Bytes(fieldParams, tx.Params)
}

// ID computes the transaction ID (SHA-256 of the full encoding).
func (tx Transaction) ID() [crypto.HashSize]byte {
	return crypto.Hash(tx.Bytes())
}

// IDHex returns the hex-encoded transaction ID.
func (tx Transaction) IDHex() string {
	id := tx.ID()
	return hex.EncodeToString(id[:])
}

// Hex returns the hex-encoded full encoding, the form accepted by
// txpool_postTransaction.
func (tx Transaction) Hex() string {
	return hex.EncodeToString(tx.Bytes())
}

// WithFee returns a copy with the given fee and no signatures.
func (tx Transaction) WithFee(fee uint64) Transaction {
	out := tx.clone()
	out.Fee = fee
	out.Signatures = nil
	return out
}

// Sign returns a copy signed by key for chainID. Existing signatures are
// replaced.
func (tx Transaction) Sign(chainID []byte, key *crypto.PrivateKey) Transaction {
	out := tx.clone()
	out.Signatures = [][]byte{key.Sign(crypto.MessageTagTransaction, chainID, tx.SigningBytes())}
	return out
}

// Decode parses the full encoding of a transaction.
func Decode(data []byte) (Transaction, error) {
	fields, err := codec.Decode(data)
	if err != nil {
		return Transaction{}, fmt.Errorf("decode transaction: %w", err)
	}
	var tx Transaction
	tx.Module, _ = fields.String(fieldModule)
	tx.Command, _ = fields.String(fieldCommand)
	tx.Nonce, _ = fields.Uint64(fieldNonce)
	tx.Fee, _ = fields.Uint64(fieldFee)
	tx.SenderPublicKey, _ = fields.Bytes(fieldSenderPublicKey)
	tx.Params, _ = fields.Bytes(fieldParams)
	tx.Signatures = fields.Repeated(fieldSignatures)
	return tx.clone(), nil
}

func (tx Transaction) clone() Transaction {
	out := tx
	out.SenderPublicKey = append([]byte(nil), tx.SenderPublicKey...)
	out.Params = append([]byte(nil), tx.Params...)
	if tx.Signatures != nil {
		out.Signatures = make([][]byte, len(tx.Signatures))
		for i, s := range tx.Signatures {
			out.Signatures[i] = append([]byte(nil), s...)
		}
	}
	return out
}

// transactionJSON is the JSON representation with hex bytes and decimal
// string integers.
type transactionJSON struct {
	ID              string   `json:"id"`
	Module          string   `json:"module"`
	Command         string   `json:"command"`
	Nonce           string   `json:"nonce"`
	Fee             string   `json:"fee"`
	SenderPublicKey string   `json:"senderPublicKey"`
	Params          string   `json:"params"`
	Signatures      []string `json:"signatures"`
}

// MarshalJSON encodes the transaction the way node APIs display it.
func (tx Transaction) MarshalJSON() ([]byte, error) {
	sigs := make([]string, len(tx.Signatures))
	for i, s := range tx.Signatures {
		sigs[i] = hex.EncodeToString(s)
	}
	return json.Marshal(transactionJSON{
		ID:              tx.IDHex(),
		Module:          tx.Module,
		Command:         tx.Command,
		Nonce:           strconv.FormatUint(tx.Nonce, 10),
		Fee:             strconv.FormatUint(tx.Fee, 10),
		SenderPublicKey: hex.EncodeToString(tx.SenderPublicKey),
		Params:          hex.EncodeToString(tx.Params),
		Signatures:      sigs,
	})
}
