package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Chain describes the per-network addresses and pricing parameters the
// aggregation engine depends on. Addresses are normalized to lowercase hex.
type Chain struct {
	FactoryAddress  string   `yaml:"factory_address"`
	WETHAddress     string   `yaml:"weth_address"`
	USDCWETHPool    string   `yaml:"usdc_weth_pool"`
	WhitelistTokens []string `yaml:"whitelist_tokens"`
	Stablecoins     []string `yaml:"stablecoins"`
	// The ignore lists are per entry point: a pool ignored at creation is
	// never indexed at all, while a pool ignored for swaps still tracks
	// liquidity and buckets and only drops its swap events.
	IgnoredPoolsCreated []string `yaml:"ignored_pools_created"`
	IgnoredPoolsSwap    []string `yaml:"ignored_pools_swap"`
	MinimumETHLocked    string   `yaml:"minimum_eth_locked"`
}

// LoadChain reads a chain manifest, falling back to the mainnet defaults
// when path is empty.
func LoadChain(path string) (*Chain, error) {
	if path == "" {
		return DefaultChain(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain manifest: %w", err)
	}

	var chain Chain
	if err := yaml.Unmarshal(raw, &chain); err != nil {
		return nil, fmt.Errorf("failed to parse chain manifest: %w", err)
	}

	chain.normalize()
	if err := chain.validate(); err != nil {
		return nil, err
	}
	return &chain, nil
}

func (c *Chain) normalize() {
	c.FactoryAddress = strings.ToLower(c.FactoryAddress)
	c.WETHAddress = strings.ToLower(c.WETHAddress)
	c.USDCWETHPool = strings.ToLower(c.USDCWETHPool)
	for i, addr := range c.WhitelistTokens {
		c.WhitelistTokens[i] = strings.ToLower(addr)
	}
	for i, addr := range c.Stablecoins {
		c.Stablecoins[i] = strings.ToLower(addr)
	}
	for i, addr := range c.IgnoredPoolsCreated {
		c.IgnoredPoolsCreated[i] = strings.ToLower(addr)
	}
	for i, addr := range c.IgnoredPoolsSwap {
		c.IgnoredPoolsSwap[i] = strings.ToLower(addr)
	}
	if c.MinimumETHLocked == "" {
		c.MinimumETHLocked = "60"
	}
}

func (c *Chain) validate() error {
	if c.FactoryAddress == "" {
		return fmt.Errorf("chain manifest: factory_address is required")
	}
	if c.WETHAddress == "" {
		return fmt.Errorf("chain manifest: weth_address is required")
	}
	if c.USDCWETHPool == "" {
		return fmt.Errorf("chain manifest: usdc_weth_pool is required")
	}
	return nil
}

// DefaultChain returns the Ethereum mainnet manifest.
func DefaultChain() *Chain {
	return &Chain{
		FactoryAddress: "0x1f98431c8ad98523631ae4a59f267346ea31f984",
		WETHAddress:    "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
		USDCWETHPool:   "0x09622b458f27c6f394455b9c0fb404ffac05e37a",
		WhitelistTokens: []string{
			"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", // WETH
			"0x6b175474e89094c44da98b954eedeac495271d0f", // DAI
			"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", // USDC
			"0xdac17f958d2ee523a2206206994597c13d831ec7", // USDT
			"0x0000000000085d4780b73119b644ae5ecd22b376", // TUSD
			"0x2260fac5e5542a773aa44fbcfedf7c193bc2c599", // WBTC
			"0x5d3a536e4d6dbd6114cc1ead35777bab948e3643", // cDAI
			"0x39aa39c021dfbae8fac545936693ac917d5e7563", // cUSDC
			"0x86fadb80d8d2cff3c3680819e4da99c10232ba0f", // EBASE
			"0x57ab1ec28d129707052df4df418d58a2d46d5f51", // sUSD
			"0x9f8f72aa9304c8b593d555f12ef6589cc3a579a2", // MKR
			"0xc00e94cb662c3520282e6f5717214004a7f26888", // COMP
			"0x514910771af9ca656af840dff83e8264ecf986ca", // LINK
			"0xc011a73ee8576fb46f5e1c5751ca3b9fe0af2a6f", // SNX
			"0x0bc529c00c6401aef6d220be8c6ea1667f6ad93e", // YFI
			"0x111111111117dc0aa78b770fa6a738034120c302", // 1INCH
			"0xdf5e0e81dff6faf3a7e52ba697820c5e32d806a8", // yCurv
			"0x956f47f50a910163d8bf957cf5846d573e7f87ca", // FEI
			"0x7d1afa7b718fb893db30a3abc0cfc608aacfebb0", // MATIC
			"0x7fc66500c84a76ad7e9c93437bfc5ac33e2ddae9", // AAVE
			"0xfe2e637202056d30016725477c5da089ab0a043a", // sETH2
		},
		Stablecoins: []string{
			"0x6b175474e89094c44da98b954eedeac495271d0f", // DAI
			"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", // USDC
			"0xdac17f958d2ee523a2206206994597c13d831ec7", // USDT
			"0x0000000000085d4780b73119b644ae5ecd22b376", // TUSD
			"0x956f47f50a910163d8bf957cf5846d573e7f87ca", // FEI
			"0x4dd28568d05f09b02220b09c2cb307bfd837cb95",
		},
		IgnoredPoolsCreated: []string{
			"0x8fe8d9bb8eeba3ed688069c3d6b556c9ca258248",
		},
		IgnoredPoolsSwap: []string{
			"0x9663f2ca0454accad3e094448ea6f77443880454",
		},
		MinimumETHLocked: "60",
	}
}
