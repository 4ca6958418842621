package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Klingon-tech/klayr-reg/internal/rpc"
	"github.com/Klingon-tech/klayr-reg/internal/rpc/nodetest"
	"github.com/Klingon-tech/klayr-reg/pkg/crypto"
	"github.com/Klingon-tech/klayr-reg/pkg/tx"
	"github.com/Klingon-tech/klayr-reg/pkg/types"
)

var testChainID = []byte{0x04, 0x00, 0x00, 0x01}

func dialAll(t *testing.T, node *nodetest.Node) map[string]*Client {
	t.Helper()
	ctx := context.Background()
	eps := map[string]Endpoint{
		"ipc":  {Name: "sidechain", IPC: node.IPCPath()},
		"ws":   {Name: "sidechain", WS: node.WSURL()},
		"http": {Name: "sidechain", WS: node.HTTPURL()},
	}
	out := make(map[string]*Client, len(eps))
	for name, ep := range eps {
		c, err := Dial(ctx, ep)
		if err != nil {
			t.Fatalf("dial %s: %v", name, err)
		}
		t.Cleanup(func() { _ = c.Close() })
		out[name] = c
	}
	return out
}

// signedTx returns a transaction signed for chainID.
func signedTx(t *testing.T, chainID []byte) tx.Transaction {
	t.Helper()
	key, err := crypto.PrivateKeyFromSeed(bytes.Repeat([]byte{0x07}, 32))
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	return tx.NewBuilder("interoperability", "registerSidechain").
		Nonce(1).
		Fee(1_000).
		SenderPublicKey(key.PublicKey()).
		Params([]byte{0x0a, 0x01, 'x'}).
		Build().
		Sign(chainID, key)
}

func jsonEqual(t *testing.T, want string, got []byte) {
	t.Helper()
	var w, g interface{}
	if err := json.Unmarshal([]byte(want), &w); err != nil {
		t.Fatalf("bad expected JSON: %v", err)
	}
	if err := json.Unmarshal(got, &g); err != nil {
		t.Fatalf("bad JSON %s: %v", got, err)
	}
	if !reflect.DeepEqual(w, g) {
		t.Errorf("JSON = %s, want %s", got, want)
	}
}

func TestDial_NoEndpoint(t *testing.T) {
	_, err := Dial(context.Background(), Endpoint{Name: "mainchain"})
	if !errors.Is(err, ErrNoEndpoint) {
		t.Fatalf("expected ErrNoEndpoint, got: %v", err)
	}
	if !strings.Contains(err.Error(), "mainchain") {
		t.Errorf("error should name the chain: %v", err)
	}
}

func TestDial_UnsupportedScheme(t *testing.T) {
	_, err := Dial(context.Background(), Endpoint{Name: "mainchain", WS: "ftp://x"})
	if err == nil {
		t.Fatal("expected error for ftp scheme")
	}
	if errors.Is(err, ErrNoEndpoint) {
		t.Errorf("unsupported scheme should not be ErrNoEndpoint: %v", err)
	}
}

func TestDial_IPCPreferredOverWS(t *testing.T) {
	node := nodetest.New(t, testChainID)
	c, err := Dial(context.Background(), Endpoint{IPC: node.IPCPath(), WS: "ws://127.0.0.1:1/ws"})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	if want := "ipc://" + node.IPCPath(); c.Target() != want {
		t.Errorf("target = %s, want %s", c.Target(), want)
	}
}

func TestDial_IPCMissingSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.ipc")
	_, err := Dial(context.Background(), Endpoint{Name: "sidechain", IPC: path})
	if err == nil {
		t.Fatal("expected error for missing socket")
	}
	if !strings.Contains(err.Error(), "dial ipc") {
		t.Errorf("error = %v", err)
	}
}

func TestClient_NodeInfo_AllTransports(t *testing.T) {
	node := nodetest.New(t, testChainID)
	node.SetHeight(42)
	node.SetMinFeePerByte(2000)

	for name, c := range dialAll(t, node) {
		t.Run(name, func(t *testing.T) {
			info, err := c.NodeInfo(context.Background())
			if err != nil {
				t.Fatalf("NodeInfo: %v", err)
			}
			if !bytes.Equal(info.ChainID, testChainID) {
				t.Errorf("chainID = %x", info.ChainID)
			}
			if info.Height != 42 {
				t.Errorf("height = %d, want 42", info.Height)
			}
			if info.MinFeePerByte() != 2000 {
				t.Errorf("minFeePerByte = %d, want 2000", info.MinFeePerByte())
			}
		})
	}
}

func TestClient_IPCSequentialCalls(t *testing.T) {
	node := nodetest.New(t, testChainID)
	c, err := Dial(context.Background(), Endpoint{IPC: node.IPCPath()})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	for i := uint64(1); i <= 3; i++ {
		node.SetHeight(i)
		info, err := c.NodeInfo(context.Background())
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if info.Height != i {
			t.Errorf("call %d: height = %d", i, info.Height)
		}
	}
	if got := len(node.Calls(MethodGetNodeInfo)); got != 3 {
		t.Errorf("node saw %d calls, want 3", got)
	}
}

func TestClient_NodeInfo_DefaultFeeRate(t *testing.T) {
	node := nodetest.New(t, testChainID)
	c := New(node.HTTPURL())

	info, err := c.NodeInfo(context.Background())
	if err != nil {
		t.Fatalf("NodeInfo: %v", err)
	}
	if info.MinFeePerByte() != 1000 {
		t.Errorf("minFeePerByte = %d, want 1000", info.MinFeePerByte())
	}
}

func TestClient_BFTParameters(t *testing.T) {
	node := nodetest.New(t, testChainID)
	node.SetValidators(68,
		nodetest.Validator{Address: "a", BLSKey: []byte{0xaa}, BFTWeight: 10},
		nodetest.Validator{Address: "b", BLSKey: []byte{0x01}, BFTWeight: 5},
	)
	c := New(node.HTTPURL())

	params, err := c.BFTParameters(context.Background(), 100)
	if err != nil {
		t.Fatalf("BFTParameters: %v", err)
	}
	if params.CertificateThreshold != 68 {
		t.Errorf("threshold = %d, want 68", params.CertificateThreshold)
	}
	if len(params.Validators) != 2 {
		t.Fatalf("validators = %d, want 2", len(params.Validators))
	}
	if !bytes.Equal(params.Validators[0].BLSKey, []byte{0xaa}) {
		t.Errorf("blsKey = %x", params.Validators[0].BLSKey)
	}
	if params.Validators[0].BFTWeight != 10 {
		t.Errorf("bftWeight = %d, want 10", params.Validators[0].BFTWeight)
	}

	calls := node.Calls(MethodGetBFTParameters)
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	jsonEqual(t, `{"height":100}`, calls[0].Params)
}

func TestClient_AuthAccount(t *testing.T) {
	node := nodetest.New(t, testChainID)
	var addr types.Address
	addr[0] = 1
	node.SetNonce(addr.String(), 9)

	acc, err := New(node.HTTPURL()).AuthAccount(context.Background(), addr)
	if err != nil {
		t.Fatalf("AuthAccount: %v", err)
	}
	if acc.Nonce != 9 {
		t.Errorf("nonce = %d, want 9", acc.Nonce)
	}
}

func TestClient_PostTransaction(t *testing.T) {
	node := nodetest.New(t, testChainID)
	c := New(node.HTTPURL())
	signed := signedTx(t, testChainID)

	res, err := c.PostTransaction(context.Background(), signed.Hex())
	if err != nil {
		t.Fatalf("PostTransaction: %v", err)
	}
	if res.TransactionID != signed.IDHex() {
		t.Errorf("transactionId = %s, want %s", res.TransactionID, signed.IDHex())
	}
	posted := node.Posted()
	if len(posted) != 1 || !bytes.Equal(posted[0], signed.Bytes()) {
		t.Errorf("posted = %x", posted)
	}

	node.FailPost("fee too low")
	_, err = c.PostTransaction(context.Background(), signed.Hex())
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got: %v", err)
	}
	if rpcErr.Message != "fee too low" {
		t.Errorf("message = %q", rpcErr.Message)
	}
}

func TestClient_PostTransactionRejected(t *testing.T) {
	node := nodetest.New(t, testChainID)
	c := New(node.HTTPURL())

	tests := map[string]string{
		"undecodable": "0a0b",
		"wrong chain": signedTx(t, []byte{0x04, 0x00, 0x00, 0x09}).Hex(),
		"unsigned": tx.NewBuilder("interoperability", "registerSidechain").
			SenderPublicKey(make([]byte, 32)).
			Build().
			Hex(),
	}
	for name, txHex := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := c.PostTransaction(context.Background(), txHex)
			var rpcErr *RPCError
			if !errors.As(err, &rpcErr) {
				t.Fatalf("expected RPCError, got: %v", err)
			}
			if rpcErr.Code != rpc.CodeInvalidParams {
				t.Errorf("code = %d, want %d", rpcErr.Code, rpc.CodeInvalidParams)
			}
		})
	}
	if len(node.Posted()) != 0 {
		t.Error("rejected transactions should not reach the pool")
	}
}

func TestClient_AuthorizeChainConnector(t *testing.T) {
	node := nodetest.New(t, testChainID)
	c := New(node.HTTPURL())

	res, err := c.AuthorizeChainConnector(context.Background(), true, "secret")
	if err != nil {
		t.Fatalf("AuthorizeChainConnector: %v", err)
	}
	if len(res) == 0 {
		t.Error("expected a result message")
	}

	calls := node.Calls(MethodAuthorizeConnector)
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	jsonEqual(t, `{"enable":true,"password":"secret"}`, calls[0].Params)
}

func TestClient_WSSkipsNotifications(t *testing.T) {
	node := nodetest.New(t, testChainID)
	node.Server().Handle("slow_echo", func(json.RawMessage) (interface{}, *rpc.Error) {
		node.Server().Notify("app_newBlock", map[string]int{"height": 1})
		return "ok", nil
	})

	c, err := Dial(context.Background(), Endpoint{WS: node.WSURL()})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	var out string
	if err := c.Call(context.Background(), "slow_echo", nil, &out); err != nil {
		t.Fatalf("call: %v", err)
	}
	if out != "ok" {
		t.Errorf("result = %q", out)
	}

	// The next call still lines up with its own response.
	info, err := c.NodeInfo(context.Background())
	if err != nil {
		t.Fatalf("NodeInfo: %v", err)
	}
	if !bytes.Equal(info.ChainID, testChainID) {
		t.Errorf("chainID = %x", info.ChainID)
	}
}

func TestClient_ContextCancel(t *testing.T) {
	node := nodetest.New(t, testChainID)
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	node.Server().Handle("hang", func(json.RawMessage) (interface{}, *rpc.Error) {
		<-block
		return nil, nil
	})

	c, err := Dial(context.Background(), Endpoint{IPC: node.IPCPath()})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := c.Call(ctx, "hang", nil, nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got: %v", err)
	}

	// A late answer to the abandoned call does not confuse the next one.
	node.SetHeight(7)
	info, err := c.NodeInfo(context.Background())
	if err != nil {
		t.Fatalf("NodeInfo after cancel: %v", err)
	}
	if info.Height != 7 {
		t.Errorf("height = %d, want 7", info.Height)
	}
}

func TestClient_MethodNotFound(t *testing.T) {
	node := nodetest.New(t, testChainID)
	err := New(node.HTTPURL()).Call(context.Background(), "missing_method", nil, nil)

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got: %v", err)
	}
	if rpcErr.Code != rpc.CodeMethodNotFound {
		t.Errorf("code = %d, want %d", rpcErr.Code, rpc.CodeMethodNotFound)
	}
}
