package feed

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

// FTSOFeed implements domain.PriceFeed against the FTSOv2 on-chain oracle.
// Thin boundary wrapper: one eth_call per read, no caching, no retries.
type FTSOFeed struct {
	client   *ethclient.Client
	contract common.Address
}

// NewFTSOFeed dials the RPC endpoint and binds the FtsoV2 contract address.
func NewFTSOFeed(ctx context.Context, rpcURL, contractAddr string) (*FTSOFeed, error) {
	if !common.IsHexAddress(contractAddr) {
		return nil, fmt.Errorf("ftso feed: bad contract address %q", contractAddr)
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("ftso feed: dial %s: %w", rpcURL, err)
	}
	return &FTSOFeed{client: client, contract: common.HexToAddress(contractAddr)}, nil
}

// Close releases the RPC connection.
func (f *FTSOFeed) Close() {
	f.client.Close()
}

// Read calls getFeedById(bytes21) and scales the returned value by its
// decimals. feedID must be the 0x-prefixed 21-byte feed id.
func (f *FTSOFeed) Read(ctx context.Context, feedID string) (float64, string, error) {
	id := common.FromHex(feedID)
	if len(id) != 21 {
		return 0, "", fmt.Errorf("ftso feed: feed id %q must be 21 bytes: %w", feedID, domain.ErrValidation)
	}

	data := append(ftsoSelector("getFeedById(bytes21)"), common.RightPadBytes(id, 32)...)
	out, err := f.client.CallContract(ctx, ethereum.CallMsg{To: &f.contract, Data: data}, nil)
	if err != nil {
		return 0, "", fmt.Errorf("ftso feed: getFeedById %s: %w", feedID, err)
	}
	if len(out) < 64 {
		return 0, "", fmt.Errorf("ftso feed: short response (%d bytes)", len(out))
	}

	// (uint256 value, int8 decimals, uint64 timestamp) -- first two words.
	value := new(big.Int).SetBytes(out[:32])
	decimals := new(big.Int).SetBytes(out[32:64]).Int64()

	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(decimals), nil))
	scaled, _ := new(big.Float).Quo(new(big.Float).SetInt(value), scale).Float64()
	return scaled, "ftso", nil
}

func ftsoSelector(sig string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	return h.Sum(nil)[:4]
}

var _ domain.PriceFeed = (*FTSOFeed)(nil)
