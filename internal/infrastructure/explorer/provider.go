package explorer

import (
	"fmt"
	"sync"

	"credit_aggregator/internal/app/port"
	"credit_aggregator/internal/domain/entity"
	"credit_aggregator/internal/infrastructure/configloader"

	"go.uber.org/zap"
)

type clientProvider struct {
	cfg     configloader.ExplorerConfig
	logger  *zap.Logger
	mu      sync.Mutex
	clients map[uint64]port.ExplorerClient
}

// NewClientProvider returns a provider that caches one explorer client per chain.
func NewClientProvider(cfg configloader.ExplorerConfig, logger *zap.Logger) port.ExplorerClientProvider {
	return &clientProvider{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[uint64]port.ExplorerClient),
	}
}

func (p *clientProvider) GetExplorer(netDef entity.NetworkDefinition) (port.ExplorerClient, error) {
	if netDef.ExplorerAPIURL == "" {
		return nil, fmt.Errorf("no explorer API for chain %d: %w", netDef.ChainID, entity.ErrUnsupportedChain)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[netDef.ChainID]; ok {
		return c, nil
	}
	c := NewClient(netDef, p.cfg, p.logger)
	p.clients[netDef.ChainID] = c
	return c, nil
}
