// Package onchain provides read-only views of on-chain contract state used
// to seed or reconcile the in-memory EscrowStore, grounded on
// sidecar/escrow_querier.go's raw-ABI JSON-RPC call pattern.
package onchain

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/streamingfast/eth-go"
	"github.com/streamingfast/eth-go/rpc"
)

var getBalanceSelector = eth.Keccak256([]byte("getBalance(address)"))[:4]

// EscrowBalanceSource is a read-only view onto a PaymentsEscrow-shaped
// contract's per-sender balance. It is not itself a store.EscrowStore — it
// has no TrySubtract/Add — its balances can seed "initial_escrow(sender)"
// (invariant I1) from chain state instead of an operator-entered number.
// Nothing in this module calls it: cmd/tapmanager starts every sender at a
// zero balance in its in-memory EscrowStore.
type EscrowBalanceSource struct {
	rpcClient  *rpc.Client
	escrowAddr eth.Address
}

// New builds an EscrowBalanceSource querying escrowAddr over rpcEndpoint.
func New(rpcEndpoint string, escrowAddr eth.Address) *EscrowBalanceSource {
	return &EscrowBalanceSource{
		rpcClient:  rpc.NewClient(rpcEndpoint),
		escrowAddr: escrowAddr,
	}
}

// GetBalance returns the escrow contract's current balance for sender, by
// calling PaymentsEscrow.getBalance(address).
func (s *EscrowBalanceSource) GetBalance(ctx context.Context, sender eth.Address) (*big.Int, error) {
	data := make([]byte, 4+32)
	copy(data[:4], getBalanceSelector)
	copy(data[4+12:4+32], sender[:])

	resultHex, err := s.rpcClient.Call(ctx, rpc.CallParams{To: s.escrowAddr, Data: data})
	if err != nil {
		return nil, fmt.Errorf("calling getBalance: %w", err)
	}

	resultHex = strings.TrimPrefix(resultHex, "0x")
	resultBytes, err := hex.DecodeString(resultHex)
	if err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	if len(resultBytes) != 32 {
		return nil, fmt.Errorf("unexpected result length: %d", len(resultBytes))
	}

	return new(big.Int).SetBytes(resultBytes), nil
}
