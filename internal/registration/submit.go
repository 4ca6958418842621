package registration

import (
	"context"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klayr-reg/internal/rpcclient"
)

// Submit posts the final transaction to the pool of api and returns the
// transaction ID reported by the node. Acceptance by the pool is not
// inclusion in a block.
func Submit(ctx context.Context, api rpcclient.API, final FinalTx) (string, error) {
	res, err := api.PostTransaction(ctx, final.Hex())
	if err != nil {
		var rpcErr *rpcclient.RPCError
		if errors.As(err, &rpcErr) {
			return "", fmt.Errorf("%w: %s", ErrSubmission, rpcErr.Message)
		}
		return "", fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	if res.TransactionID == "" {
		return final.Transaction().IDHex(), nil
	}
	return res.TransactionID, nil
}

// Authorize enables the chain connector plugin of api.
func Authorize(ctx context.Context, api rpcclient.API, password string) error {
	if _, err := api.AuthorizeChainConnector(ctx, true, password); err != nil {
		return fmt.Errorf("%w: %v", ErrAuthorization, err)
	}
	return nil
}
