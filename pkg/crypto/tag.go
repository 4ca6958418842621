package crypto

// Message tags bind a signature to its purpose.
const (
	// MessageTagTransaction prefixes transaction signatures.
	MessageTagTransaction = "KLY_TX_"
	// MessageTagChainRegistration prefixes validator signatures over a
	// mainchain registration message.
	MessageTagChainRegistration = "KLY_CHAIN_REG_"
)

// TaggedMessage returns tag || chainID || msg.
func TaggedMessage(tag string, chainID, msg []byte) []byte {
	out := make([]byte, 0, len(tag)+len(chainID)+len(msg))
	out = append(out, tag...)
	out = append(out, chainID...)
	return append(out, msg...)
}
