package ensvotes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/0xsequence/urkit/ethartifact"
	"github.com/0xsequence/urkit/ethrpc"
	"github.com/0xsequence/urkit/ethtest"
	memcache "github.com/goware/cachestore-mem"
	cachestore "github.com/goware/cachestore2"
	"github.com/goware/logger"
)

// OpenChain loads the artifacts and either attaches to cfg.RPCURL or launches
// anvil forking cfg.ForkURL. The caller must Shutdown the returned chain.
func OpenChain(ctx context.Context, cfg Config, log *slog.Logger, anvilLog logger.Logger) (*ethtest.Testchain, error) {
	contracts, err := ethartifact.LoadFoundryOut(cfg.ArtifactsDir)
	if err != nil {
		return nil, fmt.Errorf("ensvotes: load artifacts: %w", err)
	}

	// voter names are resolved once per run, and again by every Test
	backend, err := memcache.NewBackend(1024)
	if err != nil {
		return nil, err
	}
	providerOptions := []ethrpc.Option{
		ethrpc.WithLogger(log),
		ethrpc.WithCache(cachestore.OpenStore[[]byte](backend)),
	}

	if cfg.RPCURL != "" {
		return ethtest.NewTestchain(ethtest.TestchainOptions{
			NodeURL:         cfg.RPCURL,
			Contracts:       contracts,
			Logger:          anvilLog,
			ProviderOptions: providerOptions,
		})
	}

	return ethtest.Launch(ctx, ethtest.LaunchOptions{
		AnvilBin:        cfg.AnvilBin,
		ForkURL:         cfg.ForkURL,
		ForkBlockNumber: cfg.ForkBlock,
		Port:            cfg.Port,
		Contracts:       contracts,
		Logger:          anvilLog,
		ProviderOptions: providerOptions,
	})
}
