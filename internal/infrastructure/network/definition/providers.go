package networkdefinition

import (
	"credit_aggregator/internal/app/port"
	"credit_aggregator/internal/domain/entity"
	"credit_aggregator/internal/infrastructure/configloader"
)

// NetworkDefinitionProvider provides the tracked network definitions.
type NetworkDefinitionProvider struct {
	logger            port.Logger
	allNetworkDefs    map[uint64]entity.NetworkDefinition
	activeNetworkDefs []entity.NetworkDefinition
}

// Predefined network definitions. ExplorerAPIURL points at the chain's Blockscout instance.
var ( //nolint:gochecknoglobals // Global for definitions
	Ethereum = entity.NetworkDefinition{
		ChainID:                   1,
		Name:                      "Ethereum Mainnet",
		Identifier:                "ethereum",
		NativeSymbol:              "ETH",
		Decimals:                  18,
		PrimaryRPCURL:             "https://ethereum-rpc.publicnode.com",
		FallbackRPCURLs:           []string{"https://rpc.ankr.com/eth", "https://ethereum.publicnode.com"},
		BlockExplorerURL:          "https://etherscan.io",
		ExplorerAPIURL:            "https://eth.blockscout.com",
		DEXScreenerChainID:        "ethereum",
		WrappedNativeTokenAddress: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", // WETH
	}
	BSC = entity.NetworkDefinition{
		ChainID:                   56,
		Name:                      "BNB Smart Chain",
		Identifier:                "bsc",
		NativeSymbol:              "BNB",
		Decimals:                  18,
		PrimaryRPCURL:             "https://1rpc.io/bnb",
		FallbackRPCURLs:           []string{"https://bsc-dataseed2.binance.org/", "https://bsc.publicnode.com"},
		BlockExplorerURL:          "https://bscscan.com",
		ExplorerAPIURL:            "https://bsc.blockscout.com",
		DEXScreenerChainID:        "bsc",
		WrappedNativeTokenAddress: "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c", // WBNB
	}
	Polygon = entity.NetworkDefinition{
		ChainID:                   137,
		Name:                      "Polygon PoS",
		Identifier:                "polygon",
		NativeSymbol:              "POL",
		Decimals:                  18,
		PrimaryRPCURL:             "https://polygon-rpc.com/",
		FallbackRPCURLs:           []string{"https://rpc.ankr.com/polygon", "https://polygon.publicnode.com"},
		BlockExplorerURL:          "https://polygonscan.com",
		ExplorerAPIURL:            "https://polygon.blockscout.com",
		DEXScreenerChainID:        "polygon",
		WrappedNativeTokenAddress: "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270", // WPOL
	}
	Arbitrum = entity.NetworkDefinition{
		ChainID:                   42161,
		Name:                      "Arbitrum One",
		Identifier:                "arbitrum",
		NativeSymbol:              "ETH",
		Decimals:                  18,
		PrimaryRPCURL:             "https://arb1.arbitrum.io/rpc",
		FallbackRPCURLs:           []string{"https://arbitrum.llamarpc.com", "https://arbitrum.publicnode.com"},
		BlockExplorerURL:          "https://arbiscan.io",
		ExplorerAPIURL:            "https://arbitrum.blockscout.com",
		DEXScreenerChainID:        "arbitrum",
		WrappedNativeTokenAddress: "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1",
	}
	Avalanche = entity.NetworkDefinition{
		ChainID:                   43114,
		Name:                      "Avalanche C-Chain",
		Identifier:                "avalanche",
		NativeSymbol:              "AVAX",
		Decimals:                  18,
		PrimaryRPCURL:             "https://api.avax.network/ext/bc/C/rpc",
		FallbackRPCURLs:           []string{"https://avalanche.public-rpc.com", "https://rpc.ankr.com/avalanche"},
		BlockExplorerURL:          "https://snowtrace.io",
		ExplorerAPIURL:            "https://avalanche.blockscout.com",
		DEXScreenerChainID:        "avalanche",
		WrappedNativeTokenAddress: "0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7", // WAVAX
	}
	Base = entity.NetworkDefinition{
		ChainID:                   8453,
		Name:                      "Base Mainnet",
		Identifier:                "base",
		NativeSymbol:              "ETH",
		Decimals:                  18,
		PrimaryRPCURL:             "https://1rpc.io/base",
		FallbackRPCURLs:           []string{"https://base.publicnode.com", "https://base.llamarpc.com"},
		BlockExplorerURL:          "https://basescan.org",
		ExplorerAPIURL:            "https://base.blockscout.com",
		DEXScreenerChainID:        "base",
		WrappedNativeTokenAddress: "0x4200000000000000000000000000000000000006",
	}
	Celo = entity.NetworkDefinition{
		ChainID:                   42220,
		Name:                      "Celo Mainnet",
		Identifier:                "celo",
		NativeSymbol:              "CELO",
		Decimals:                  18,
		PrimaryRPCURL:             "https://rpc.ankr.com/celo",
		FallbackRPCURLs:           []string{"https://forno.celo.org"},
		BlockExplorerURL:          "https://celoscan.io",
		ExplorerAPIURL:            "https://celo.blockscout.com",
		DEXScreenerChainID:        "celo",
		WrappedNativeTokenAddress: "0x471ece3750da237f93b8e339c536989b8978a438", // CELO is its own ERC-20
	}
	Gnosis = entity.NetworkDefinition{
		ChainID:                   100,
		Name:                      "Gnosis Chain",
		Identifier:                "gnosis",
		NativeSymbol:              "xDAI",
		Decimals:                  18,
		PrimaryRPCURL:             "https://0xrpc.io/gno",
		FallbackRPCURLs:           []string{"https://rpc.ankr.com/gnosis", "https://gnosis.publicnode.com"},
		BlockExplorerURL:          "https://gnosisscan.io",
		ExplorerAPIURL:            "https://gnosis.blockscout.com",
		DEXScreenerChainID:        "gnosis",
		WrappedNativeTokenAddress: "0xe91D153E0b41518A2Ce8DD3D7944Fa863463A97d", // WXDAI
	}
	Linea = entity.NetworkDefinition{
		ChainID:                   59144,
		Name:                      "Linea Mainnet",
		Identifier:                "linea",
		NativeSymbol:              "ETH",
		Decimals:                  18,
		PrimaryRPCURL:             "https://rpc.linea.build",
		FallbackRPCURLs:           []string{"https://linea.blockpi.network/v1/rpc/public"},
		BlockExplorerURL:          "https://lineascan.build",
		ExplorerAPIURL:            "https://linea.blockscout.com",
		DEXScreenerChainID:        "linea",
		WrappedNativeTokenAddress: "0xe5D7C2a44FfDDf6b295A15c148167daaAf5Cf34f",
	}
	Metis = entity.NetworkDefinition{
		ChainID:            1088,
		Name:               "Metis Andromeda Mainnet",
		Identifier:         "metis",
		NativeSymbol:       "METIS",
		Decimals:           18,
		PrimaryRPCURL:      "https://andromeda.metis.io/?owner=1088",
		FallbackRPCURLs:    []string{},
		BlockExplorerURL:   "https://andromeda-explorer.metis.io",
		ExplorerAPIURL:     "https://metis.blockscout.com",
		DEXScreenerChainID: "metis",
	}
	Optimism = entity.NetworkDefinition{
		ChainID:                   10,
		Name:                      "OP Mainnet",
		Identifier:                "optimism",
		NativeSymbol:              "ETH",
		Decimals:                  18,
		PrimaryRPCURL:             "https://op-pokt.nodies.app",
		FallbackRPCURLs:           []string{"https://optimism.publicnode.com", "https://rpc.ankr.com/optimism"},
		BlockExplorerURL:          "https://optimistic.etherscan.io",
		ExplorerAPIURL:            "https://optimism.blockscout.com",
		DEXScreenerChainID:        "optimism",
		WrappedNativeTokenAddress: "0x4200000000000000000000000000000000000006",
	}
	PolygonZkEVM = entity.NetworkDefinition{
		ChainID:                   1101,
		Name:                      "Polygon zkEVM",
		Identifier:                "polygon_zkevm",
		NativeSymbol:              "ETH",
		Decimals:                  18,
		PrimaryRPCURL:             "https://zkevm-rpc.com",
		FallbackRPCURLs:           []string{"https://rpc.ankr.com/polygon_zkevm"},
		BlockExplorerURL:          "https://zkevm.polygonscan.com",
		ExplorerAPIURL:            "https://zkevm.blockscout.com",
		DEXScreenerChainID:        "polygonzkevm",
		WrappedNativeTokenAddress: "0x4F9A0e7FD2Bf6067db6994CF12E4495Df938E6e9",
	}
	Scroll = entity.NetworkDefinition{
		ChainID:                   534352,
		Name:                      "Scroll",
		Identifier:                "scroll",
		NativeSymbol:              "ETH",
		Decimals:                  18,
		PrimaryRPCURL:             "https://rpc.scroll.io",
		FallbackRPCURLs:           []string{"https://scroll.blockpi.network/v1/rpc/public"},
		BlockExplorerURL:          "https://scrollscan.com",
		ExplorerAPIURL:            "https://scroll.blockscout.com",
		DEXScreenerChainID:        "scroll",
		WrappedNativeTokenAddress: "0x5300000000000000000000000000000000000004",
	}
	ZkSync = entity.NetworkDefinition{ // zkSync Era
		ChainID:                   324,
		Name:                      "zkSync Era Mainnet",
		Identifier:                "zksync",
		NativeSymbol:              "ETH",
		Decimals:                  18,
		PrimaryRPCURL:             "https://mainnet.era.zksync.io",
		FallbackRPCURLs:           []string{},
		BlockExplorerURL:          "https://explorer.zksync.io",
		ExplorerAPIURL:            "https://zksync.blockscout.com",
		DEXScreenerChainID:        "zksync",
		WrappedNativeTokenAddress: "0x5AEa5775959fBC2557Cc8789bC1bf90A239D9a91",
	}
	Sepolia = entity.NetworkDefinition{
		ChainID:          11155111,
		Name:             "Sepolia",
		Identifier:       "sepolia",
		NativeSymbol:     "ETH",
		Decimals:         18,
		PrimaryRPCURL:    "https://ethereum-sepolia-rpc.publicnode.com",
		FallbackRPCURLs:  []string{"https://rpc.sepolia.org"},
		BlockExplorerURL: "https://sepolia.etherscan.io",
		ExplorerAPIURL:   "https://sepolia.blockscout.com",
	}
)

// allKnownDefinitions is a helper to quickly access all hardcoded definitions.
var allKnownDefinitions = map[uint64]entity.NetworkDefinition{
	Ethereum.ChainID:     Ethereum,
	BSC.ChainID:          BSC,
	Polygon.ChainID:      Polygon,
	Arbitrum.ChainID:     Arbitrum,
	Avalanche.ChainID:    Avalanche,
	Base.ChainID:         Base,
	Celo.ChainID:         Celo,
	Gnosis.ChainID:       Gnosis,
	Linea.ChainID:        Linea,
	Metis.ChainID:        Metis,
	Optimism.ChainID:     Optimism,
	PolygonZkEVM.ChainID: PolygonZkEVM,
	Scroll.ChainID:       Scroll,
	ZkSync.ChainID:       ZkSync,
	Sepolia.ChainID:      Sepolia,
}

// KnownDefinition returns the built-in definition for chainID.
func KnownDefinition(chainID uint64) (entity.NetworkDefinition, bool) {
	def, ok := allKnownDefinitions[chainID]
	return def, ok
}

// NewNetworkDefinitionProvider activates the tracked chains from cfg in configured order
// and applies endpoint overrides.
func NewNetworkDefinitionProvider(log port.Logger, cfg *configloader.Config) *NetworkDefinitionProvider {
	p := &NetworkDefinitionProvider{
		logger:            log,
		allNetworkDefs:    allKnownDefinitions,
		activeNetworkDefs: make([]entity.NetworkDefinition, 0, len(cfg.TrackedChainIDs)),
	}

	for _, chainID := range cfg.TrackedChainIDs {
		def, ok := p.allNetworkDefs[chainID]
		if !ok {
			p.logger.Warn("Tracked chain has no built-in network definition, skipping", "chain_id", chainID)
			continue
		}
		if override, found := cfg.NetworkOverrideFor(chainID); found {
			def = applyOverride(def, override)
		}
		p.activeNetworkDefs = append(p.activeNetworkDefs, def)
		p.logger.Debug("Network activated", "chain_id", def.ChainID, "name", def.Name, "explorer", def.ExplorerAPIURL)
	}

	if len(p.activeNetworkDefs) == 0 {
		p.logger.Warn("No tracked networks are active. Assessments will contain no chain data.")
	} else {
		p.logger.Info("NetworkDefinitionProvider initialized", "active_networks", len(p.activeNetworkDefs))
	}
	return p
}

func applyOverride(def entity.NetworkDefinition, o configloader.NetworkOverride) entity.NetworkDefinition {
	if o.PrimaryRPCURL != "" {
		def.PrimaryRPCURL = o.PrimaryRPCURL
	}
	if len(o.FallbackRPCURLs) > 0 {
		def.FallbackRPCURLs = append([]string(nil), o.FallbackRPCURLs...)
	}
	if o.ExplorerAPIURL != "" {
		def.ExplorerAPIURL = o.ExplorerAPIURL
	}
	return def
}

// GetAllNetworkDefinitions returns the list of active (tracked) network definitions.
func (p *NetworkDefinitionProvider) GetAllNetworkDefinitions() []entity.NetworkDefinition {
	if p == nil {
		return []entity.NetworkDefinition{}
	}
	defsCopy := make([]entity.NetworkDefinition, len(p.activeNetworkDefs))
	copy(defsCopy, p.activeNetworkDefs)
	return defsCopy
}

// GetNetworkDefinitionByChainID returns a specific network definition by its chain ID if it's active.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionByChainID(chainID uint64) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	for _, def := range p.activeNetworkDefs {
		if def.ChainID == chainID {
			return def, true
		}
	}
	return entity.NetworkDefinition{}, false
}
