package rpcclient

import (
	"context"
	"encoding/json"

	"github.com/Klingon-tech/klayr-reg/pkg/tx"
	"github.com/Klingon-tech/klayr-reg/pkg/types"
)

// Node RPC methods.
const (
	MethodGetNodeInfo        = "system_getNodeInfo"
	MethodGetBFTParameters   = "consensus_getBFTParameters"
	MethodGetAuthAccount     = "auth_getAuthAccount"
	MethodPostTransaction    = "txpool_postTransaction"
	MethodAuthorizeConnector = "chainConnector_authorize"
)

// Genesis holds the genesis settings reported by a node.
type Genesis struct {
	MinFeePerByte types.Uint64String `json:"minFeePerByte"`
}

// NodeInfo is the result of system_getNodeInfo.
type NodeInfo struct {
	ChainID types.HexBytes `json:"chainID"`
	Height  uint64         `json:"height"`
	Genesis *Genesis       `json:"genesis,omitempty"`
}

// MinFeePerByte returns the node's fee rate, or the default when unset.
func (n *NodeInfo) MinFeePerByte() uint64 {
	if n.Genesis == nil || n.Genesis.MinFeePerByte == 0 {
		return tx.DefaultMinFeePerByte
	}
	return uint64(n.Genesis.MinFeePerByte)
}

// Validator is one entry of the active BFT validator set.
type Validator struct {
	Address   string             `json:"address"`
	BFTWeight types.Uint64String `json:"bftWeight"`
	BLSKey    types.HexBytes     `json:"blsKey"`
}

// BFTParameters is the result of consensus_getBFTParameters.
type BFTParameters struct {
	Validators           []Validator        `json:"validators"`
	CertificateThreshold types.Uint64String `json:"certificateThreshold"`
}

// AuthAccount is the result of auth_getAuthAccount.
type AuthAccount struct {
	Nonce types.Uint64String `json:"nonce"`
}

// PostTransactionResult is the result of txpool_postTransaction.
type PostTransactionResult struct {
	TransactionID string `json:"transactionId"`
}

// API is the set of node calls used by the registration flows.
type API interface {
	NodeInfo(ctx context.Context) (*NodeInfo, error)
	BFTParameters(ctx context.Context, height uint64) (*BFTParameters, error)
	AuthAccount(ctx context.Context, address types.Address) (*AuthAccount, error)
	PostTransaction(ctx context.Context, txHex string) (*PostTransactionResult, error)
	AuthorizeChainConnector(ctx context.Context, enable bool, password string) (json.RawMessage, error)
}

// NodeInfo calls system_getNodeInfo.
func (c *Client) NodeInfo(ctx context.Context) (*NodeInfo, error) {
	var info NodeInfo
	if err := c.Call(ctx, MethodGetNodeInfo, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// BFTParameters calls consensus_getBFTParameters at the given height.
func (c *Client) BFTParameters(ctx context.Context, height uint64) (*BFTParameters, error) {
	var params BFTParameters
	err := c.Call(ctx, MethodGetBFTParameters, map[string]uint64{"height": height}, &params)
	if err != nil {
		return nil, err
	}
	return &params, nil
}

// AuthAccount calls auth_getAuthAccount for a klayr32 address.
func (c *Client) AuthAccount(ctx context.Context, address types.Address) (*AuthAccount, error) {
	var acc AuthAccount
	err := c.Call(ctx, MethodGetAuthAccount, map[string]string{"address": address.String()}, &acc)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// PostTransaction submits a hex-encoded transaction to the pool.
func (c *Client) PostTransaction(ctx context.Context, txHex string) (*PostTransactionResult, error) {
	var res PostTransactionResult
	err := c.Call(ctx, MethodPostTransaction, map[string]string{"transaction": txHex}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// AuthorizeChainConnector enables or disables the chain connector plugin.
func (c *Client) AuthorizeChainConnector(ctx context.Context, enable bool, password string) (json.RawMessage, error) {
	params := struct {
		Enable   bool   `json:"enable"`
		Password string `json:"password"`
	}{enable, password}

	var res json.RawMessage
	if err := c.Call(ctx, MethodAuthorizeConnector, params, &res); err != nil {
		return nil, err
	}
	return res, nil
}

var _ API = (*Client)(nil)
