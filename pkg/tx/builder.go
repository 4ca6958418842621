package tx

// Builder constructs transactions incrementally.
type Builder struct {
	tx Transaction
}

// NewBuilder creates a builder for a module command.
func NewBuilder(module, command string) *Builder {
	return &Builder{tx: Transaction{Module: module, Command: command}}
}

// Nonce sets the sender account nonce.
func (b *Builder) Nonce(nonce uint64) *Builder {
	b.tx.Nonce = nonce
	return b
}

// Fee sets the transaction fee.
func (b *Builder) Fee(fee uint64) *Builder {
	b.tx.Fee = fee
	return b
}

// SenderPublicKey sets the ed25519 public key of the sender.
func (b *Builder) SenderPublicKey(pub []byte) *Builder {
	b.tx.SenderPublicKey = append([]byte(nil), pub...)
	return b
}

// Params sets the encoded command parameters.
func (b *Builder) Params(params []byte) *Builder {
	b.tx.Params = append([]byte(nil), params...)
	return b
}

// Build returns the unsigned transaction.
func (b *Builder) Build() Transaction {
	return b.tx.clone()
}
