// Package nodetest runs an in-process fake Klayr node that answers the
// RPC methods used by the registration flows.
package nodetest

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/Klingon-tech/klayr-reg/internal/rpc"
	"github.com/Klingon-tech/klayr-reg/pkg/crypto"
	"github.com/Klingon-tech/klayr-reg/pkg/tx"
)

// Validator is one entry of the fake node's BFT parameters.
type Validator struct {
	Address   string
	BLSKey    []byte
	BFTWeight uint64
}

// Call is one recorded request.
type Call struct {
	Method string
	Params json.RawMessage
}

// Node is a fake node configured through its setters.
type Node struct {
	srv     *rpc.Server
	ipcPath string

	mu                   sync.Mutex
	chainID              []byte
	height               uint64
	minFeePerByte        uint64
	validators           []Validator
	certificateThreshold uint64
	nonces               map[string]uint64
	postErr              *rpc.Error
	authorizeErr         *rpc.Error
	calls                []Call
	posted               [][]byte
}

// New starts a fake node for chainID listening on a loopback TCP port
// and a ZeroMQ IPC socket. It is stopped when the test ends.
func New(t testing.TB, chainID []byte) *Node {
	t.Helper()

	n := &Node{
		srv:     rpc.New(),
		chainID: append([]byte(nil), chainID...),
		height:  100,
		nonces:  make(map[string]uint64),
	}
	n.register()

	if err := n.srv.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("start fake node: %v", err)
	}

	// Socket paths are length limited, so avoid the long t.TempDir names.
	dir, err := os.MkdirTemp("", "klyreg")
	if err != nil {
		t.Fatalf("socket dir: %v", err)
	}
	n.ipcPath = filepath.Join(dir, "node.sock")
	if err := n.srv.StartIPC(n.ipcPath); err != nil {
		t.Fatalf("start fake node ipc: %v", err)
	}

	t.Cleanup(func() {
		_ = n.srv.Stop()
		_ = os.RemoveAll(dir)
	})
	return n
}

// HTTPURL returns the node's http:// URL.
func (n *Node) HTTPURL() string { return n.srv.HTTPURL() }

// WSURL returns the node's ws:// URL.
func (n *Node) WSURL() string { return n.srv.WSURL() }

// IPCPath returns the node's IPC socket path.
func (n *Node) IPCPath() string { return n.ipcPath }

// Server exposes the underlying RPC server for custom handlers.
func (n *Node) Server() *rpc.Server { return n.srv }

// SetHeight sets the height reported by system_getNodeInfo.
func (n *Node) SetHeight(h uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.height = h
}

// SetMinFeePerByte sets genesis.minFeePerByte. Zero omits genesis.
func (n *Node) SetMinFeePerByte(v uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minFeePerByte = v
}

// SetValidators sets the BFT parameters.
func (n *Node) SetValidators(threshold uint64, vals ...Validator) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.certificateThreshold = threshold
	n.validators = append([]Validator(nil), vals...)
}

// SetNonce sets the nonce returned for a klayr32 address.
func (n *Node) SetNonce(address string, nonce uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nonces[address] = nonce
}

// FailPost makes txpool_postTransaction fail with message.
func (n *Node) FailPost(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.postErr = &rpc.Error{Code: rpc.CodeInternalError, Message: message}
}

// FailAuthorize makes chainConnector_authorize fail with message.
func (n *Node) FailAuthorize(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.authorizeErr = &rpc.Error{Code: rpc.CodeInternalError, Message: message}
}

// Calls returns the recorded requests for method, or all requests when
// method is empty.
func (n *Node) Calls(method string) []Call {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Call
	for _, c := range n.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Posted returns the raw bytes of every transaction submitted to the pool.
func (n *Node) Posted() [][]byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([][]byte(nil), n.posted...)
}

func (n *Node) record(method string, params json.RawMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, Call{Method: method, Params: append(json.RawMessage(nil), params...)})
}

func (n *Node) handle(method string, fn rpc.HandlerFunc) {
	n.srv.Handle(method, func(params json.RawMessage) (interface{}, *rpc.Error) {
		n.record(method, params)
		return fn(params)
	})
}

func (n *Node) register() {
	n.handle("system_getNodeInfo", n.nodeInfo)
	n.handle("consensus_getBFTParameters", n.bftParameters)
	n.handle("auth_getAuthAccount", n.authAccount)
	n.handle("txpool_postTransaction", n.postTransaction)
	n.handle("chainConnector_authorize", n.authorize)
}

func (n *Node) nodeInfo(json.RawMessage) (interface{}, *rpc.Error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	info := map[string]interface{}{
		"chainID": hex.EncodeToString(n.chainID),
		"height":  n.height,
	}
	if n.minFeePerByte > 0 {
		info["genesis"] = map[string]interface{}{"minFeePerByte": n.minFeePerByte}
	}
	return info, nil
}

func (n *Node) bftParameters(params json.RawMessage) (interface{}, *rpc.Error) {
	var p struct {
		Height *uint64 `json:"height"`
	}
	if err := rpc.ParseParams(params, &p); err != nil {
		return nil, err
	}
	if p.Height == nil {
		return nil, &rpc.Error{Code: rpc.CodeInvalidParams, Message: "height required"}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	vals := make([]map[string]string, len(n.validators))
	for i, v := range n.validators {
		vals[i] = map[string]string{
			"address":   v.Address,
			"blsKey":    hex.EncodeToString(v.BLSKey),
			"bftWeight": strconv.FormatUint(v.BFTWeight, 10),
		}
	}
	return map[string]interface{}{
		"validators":           vals,
		"certificateThreshold": strconv.FormatUint(n.certificateThreshold, 10),
	}, nil
}

func (n *Node) authAccount(params json.RawMessage) (interface{}, *rpc.Error) {
	var p struct {
		Address string `json:"address"`
	}
	if err := rpc.ParseParams(params, &p); err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return map[string]string{"nonce": strconv.FormatUint(n.nonces[p.Address], 10)}, nil
}

func (n *Node) postTransaction(params json.RawMessage) (interface{}, *rpc.Error) {
	var p struct {
		Transaction string `json:"transaction"`
	}
	if err := rpc.ParseParams(params, &p); err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(p.Transaction)
	if err != nil {
		return nil, &rpc.Error{Code: rpc.CodeInvalidParams, Message: "transaction must be hex"}
	}
	decoded, err := tx.Decode(raw)
	if err != nil {
		return nil, &rpc.Error{Code: rpc.CodeInvalidParams, Message: err.Error()}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.postErr != nil {
		return nil, n.postErr
	}
	if err := decoded.Validate(n.chainID); err != nil {
		return nil, &rpc.Error{Code: rpc.CodeInvalidParams, Message: err.Error()}
	}
	n.posted = append(n.posted, raw)
	id := crypto.Hash(raw)
	return map[string]string{"transactionId": hex.EncodeToString(id[:])}, nil
}

func (n *Node) authorize(params json.RawMessage) (interface{}, *rpc.Error) {
	var p struct {
		Enable   bool   `json:"enable"`
		Password string `json:"password"`
	}
	if err := rpc.ParseParams(params, &p); err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.authorizeErr != nil {
		return nil, n.authorizeErr
	}
	return map[string]string{"result": "Successfully enabled the chain connector plugin."}, nil
}
