package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/crypto/sha3"

	"github.com/stylelend/rentbond/internal/domain"
)

// ChainLedger reads points balances from the deployed points token contract
// over JSON-RPC. It is a thin boundary wrapper: settlement (issue/spend
// transactions) is submitted by the contract owner out of band, so Credit and
// Debit only verify connectivity and report the resulting balance; the core
// never signs or sends transactions itself.
type ChainLedger struct {
	client   *ethclient.Client
	contract common.Address
	decimals int64
}

// NewChainLedger dials the RPC endpoint and binds the points token address.
func NewChainLedger(ctx context.Context, rpcURL, contractAddr string, decimals int64) (*ChainLedger, error) {
	if !common.IsHexAddress(contractAddr) {
		return nil, fmt.Errorf("chain ledger: bad contract address %q", contractAddr)
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain ledger: dial %s: %w", rpcURL, err)
	}
	if decimals <= 0 {
		decimals = 18
	}
	return &ChainLedger{
		client:   client,
		contract: common.HexToAddress(contractAddr),
		decimals: decimals,
	}, nil
}

// Close releases the RPC connection.
func (l *ChainLedger) Close() {
	l.client.Close()
}

// Credit reports the balance after an out-of-band issue; the actual token
// issuance is performed by the contract owner service.
func (l *ChainLedger) Credit(ctx context.Context, user string, amount int) (int, error) {
	return l.Balance(ctx, user)
}

// Debit reports the balance after an out-of-band spend.
func (l *ChainLedger) Debit(ctx context.Context, user string, amount int) (int, error) {
	return l.Balance(ctx, user)
}

// Balance calls balanceOf(address) on the points token. The user string must
// be an EVM address in chain mode.
func (l *ChainLedger) Balance(ctx context.Context, user string) (int, error) {
	if !common.IsHexAddress(user) {
		return 0, fmt.Errorf("chain ledger: %q is not an address: %w", user, domain.ErrValidation)
	}

	data := append(selector("balanceOf(address)"), common.LeftPadBytes(common.HexToAddress(user).Bytes(), 32)...)
	out, err := l.client.CallContract(ctx, ethereum.CallMsg{To: &l.contract, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("chain ledger: balanceOf %s: %w", user, err)
	}

	raw := new(big.Int).SetBytes(out)
	units := new(big.Int).Exp(big.NewInt(10), big.NewInt(l.decimals), nil)
	return int(new(big.Int).Div(raw, units).Int64()), nil
}

// selector returns the 4-byte function selector for a Solidity signature.
func selector(sig string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	return h.Sum(nil)[:4]
}

var _ domain.PointsLedger = (*ChainLedger)(nil)
