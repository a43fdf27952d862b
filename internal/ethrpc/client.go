// Package ethrpc wraps the JSON-RPC node client with the contract reads
// the engine needs: ERC-20 metadata and pool fee growth state.
package ethrpc

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/subgraph"
)

// ERC20 ABI variants: string plus bytes32 fallbacks for name/symbol.
const erc20ABIString = `[
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"NAME","outputs":[{"name":"","type":"bytes32"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"SYMBOL","outputs":[{"name":"","type":"bytes32"}],"type":"function"}
]`

const poolStateABIString = `[
	{"constant":true,"inputs":[],"name":"feeGrowthGlobal0X128","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"feeGrowthGlobal1X128","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

type Client struct {
	eth      *ethclient.Client
	erc20ABI abi.ABI
	poolABI  abi.ABI
	logger   zerolog.Logger
}

func New(ctx context.Context, endpoint string, logger zerolog.Logger) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	erc20ABI, err := abi.JSON(strings.NewReader(erc20ABIString))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}
	poolABI, err := abi.JSON(strings.NewReader(poolStateABIString))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool state ABI: %w", err)
	}

	return &Client{
		eth:      eth,
		erc20ABI: erc20ABI,
		poolABI:  poolABI,
		logger:   logger.With().Str("component", "ethrpc").Logger(),
	}, nil
}

func (c *Client) Close() {
	c.eth.Close()
}

// TokenMetadata reads a token's ERC-20 surface. Name, symbol and total
// supply degrade to placeholders when the calls fail; decimals cannot be
// guessed, so a failed decimals read is an error.
func (c *Client) TokenMetadata(ctx context.Context, address string) (*subgraph.TokenMetadata, error) {
	metadata := &subgraph.TokenMetadata{
		Name:        "Unknown",
		Symbol:      "???",
		TotalSupply: big.NewInt(0),
	}

	contract := bind.NewBoundContract(common.HexToAddress(address), c.erc20ABI, c.eth, c.eth, c.eth)
	opts := &bind.CallOpts{Context: ctx}

	// name (string) with fallback NAME() bytes32
	results := []interface{}{new(string)}
	if err := contract.Call(opts, &results, "name"); err == nil {
		if name, ok := results[0].(*string); ok && name != nil && *name != "" {
			metadata.Name = *name
		}
	}
	if metadata.Name == "Unknown" {
		results = []interface{}{new([32]byte)}
		if err := contract.Call(opts, &results, "NAME"); err == nil {
			if b32, ok := results[0].(*[32]byte); ok && b32 != nil {
				if name := strings.TrimRight(string(b32[:]), "\x00"); name != "" {
					metadata.Name = name
				}
			}
		}
	}

	// symbol (string) with fallback SYMBOL() bytes32
	results = []interface{}{new(string)}
	if err := contract.Call(opts, &results, "symbol"); err == nil {
		if sym, ok := results[0].(*string); ok && sym != nil && *sym != "" {
			metadata.Symbol = *sym
		}
	}
	if metadata.Symbol == "???" {
		results = []interface{}{new([32]byte)}
		if err := contract.Call(opts, &results, "SYMBOL"); err == nil {
			if b32, ok := results[0].(*[32]byte); ok && b32 != nil {
				if sym := strings.TrimRight(string(b32[:]), "\x00"); sym != "" {
					metadata.Symbol = sym
				}
			}
		}
	}

	// decimals
	results = []interface{}{new(uint8)}
	if err := contract.Call(opts, &results, "decimals"); err != nil {
		return nil, fmt.Errorf("failed to read decimals for %s: %w", address, err)
	}
	dec, ok := results[0].(*uint8)
	if !ok || dec == nil {
		return nil, fmt.Errorf("unexpected decimals result for %s", address)
	}
	metadata.Decimals = int32(*dec)

	// totalSupply
	results = []interface{}{new(*big.Int)}
	if err := contract.Call(opts, &results, "totalSupply"); err == nil {
		if ts, ok := results[0].(**big.Int); ok && ts != nil && *ts != nil {
			metadata.TotalSupply = *ts
		}
	}

	return metadata, nil
}

// TotalSupply reads just the supply, for periodic refreshes.
func (c *Client) TotalSupply(ctx context.Context, address string) (*big.Int, error) {
	contract := bind.NewBoundContract(common.HexToAddress(address), c.erc20ABI, c.eth, c.eth, c.eth)
	results := []interface{}{new(*big.Int)}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &results, "totalSupply"); err != nil {
		return nil, fmt.Errorf("failed to read totalSupply for %s: %w", address, err)
	}
	ts, ok := results[0].(**big.Int)
	if !ok || ts == nil || *ts == nil {
		return nil, fmt.Errorf("unexpected totalSupply result for %s", address)
	}
	return *ts, nil
}

// FeeGrowthGlobals reads both fee growth accumulators from the pool.
func (c *Client) FeeGrowthGlobals(ctx context.Context, pool string) (*big.Int, *big.Int, error) {
	contract := bind.NewBoundContract(common.HexToAddress(pool), c.poolABI, c.eth, c.eth, c.eth)
	opts := &bind.CallOpts{Context: ctx}

	results := []interface{}{new(*big.Int)}
	if err := contract.Call(opts, &results, "feeGrowthGlobal0X128"); err != nil {
		return nil, nil, fmt.Errorf("failed to read feeGrowthGlobal0X128: %w", err)
	}
	fee0 := *(results[0].(**big.Int))

	results = []interface{}{new(*big.Int)}
	if err := contract.Call(opts, &results, "feeGrowthGlobal1X128"); err != nil {
		return nil, nil, fmt.Errorf("failed to read feeGrowthGlobal1X128: %w", err)
	}
	fee1 := *(results[0].(**big.Int))

	return fee0, fee1, nil
}

// BlockNumber returns the current chain head.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return c.eth.BlockNumber(ctx)
}

// BlockTimestamp returns the unix timestamp of a block by number.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (int64, error) {
	header, err := c.eth.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, fmt.Errorf("failed to fetch header %d: %w", number, err)
	}
	return int64(header.Time), nil
}

// FilterLogs fetches logs for a block range limited to the given topics.
func (c *Client) FilterLogs(ctx context.Context, from, to uint64, topics []common.Hash) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Topics:    [][]common.Hash{topics},
	}
	logs, err := c.eth.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to filter logs %d-%d: %w", from, to, err)
	}
	return logs, nil
}
