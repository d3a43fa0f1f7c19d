package ethtest

import (
	"context"
	"fmt"
	"math/big"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/0xsequence/urkit/ethartifact"
	"github.com/0xsequence/urkit/ethcontract"
	"github.com/0xsequence/urkit/ethdeploy"
	"github.com/0xsequence/urkit/ethrpc"
	"github.com/0xsequence/urkit/ethwallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goware/logger"
)

// ShutdownGracePeriod is how long Shutdown waits after SIGTERM before killing anvil.
var ShutdownGracePeriod = 5 * time.Second

type Testchain struct {
	options TestchainOptions

	chainID  *big.Int         // chainID determined by the test chain
	Provider *ethrpc.Provider // provider rpc to the test chain

	// Contracts deployable by name with Deploy.
	Contracts *ethartifact.ContractRegistry

	log logger.Logger

	cmd          *exec.Cmd
	exited       chan struct{}
	shutdownOnce sync.Once
}

type TestchainOptions struct {
	NodeURL        string
	Mnemonic       string
	ConnectTimeout time.Duration
	Contracts      *ethartifact.ContractRegistry
	Logger         logger.Logger

	ProviderOptions []ethrpc.Option
}

var DefaultTestchainOptions = TestchainOptions{
	NodeURL:        "http://localhost:8545",
	ConnectTimeout: 6 * time.Second,
}

// NewTestchain attaches to a running dev node.
func NewTestchain(opts ...TestchainOptions) (*Testchain, error) {
	options := DefaultTestchainOptions
	if len(opts) > 0 {
		options = opts[0]
	}
	tc, err := newTestchain(options)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), tc.options.ConnectTimeout)
	defer cancel()

	// connect to the test-chain or error out if fail to communicate
	if err := tc.connect(ctx); err != nil {
		return nil, err
	}
	return tc, nil
}

func newTestchain(options TestchainOptions) (*Testchain, error) {
	if options.NodeURL == "" {
		options.NodeURL = DefaultTestchainOptions.NodeURL
	}
	if options.ConnectTimeout == 0 {
		options.ConnectTimeout = DefaultTestchainOptions.ConnectTimeout
	}
	if options.Mnemonic == "" {
		options.Mnemonic = ethwallet.DevMnemonic
	}
	if options.Contracts == nil {
		options.Contracts = ethartifact.NewContractRegistry()
	}
	if options.Logger == nil {
		options.Logger = defaultLogger()
	}

	provider, err := ethrpc.NewProvider(options.NodeURL, options.ProviderOptions...)
	if err != nil {
		return nil, err
	}

	return &Testchain{
		options:   options,
		Provider:  provider,
		Contracts: options.Contracts,
		log:       options.Logger,
	}, nil
}

func (c *Testchain) connect(ctx context.Context) error {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	var lastErr error
	for {
		chainID, err := c.Provider.ChainID(ctx)
		if err == nil && chainID != nil {
			c.chainID = chainID
			c.log.Infof("ethtest: connected to %s, chain id %s", c.Provider.NodeURL(), chainID)
			return nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return fmt.Errorf("ethtest: unable to connect to testchain at %s: %v", c.Provider.NodeURL(), lastErr)
		case <-ticker.C:
		}
	}
}

func (c *Testchain) ChainID() *big.Int {
	return c.chainID
}

// Wallet returns a new wallet on the dev mnemonic, so account index changes
// don't leak across consumers.
func (c *Testchain) Wallet() (*ethwallet.Wallet, error) {
	wallet, err := ethwallet.NewWalletFromMnemonic(c.options.Mnemonic)
	if err != nil {
		return nil, err
	}
	wallet.SetProvider(c.Provider)
	return wallet, nil
}

func (c *Testchain) MustWallet(optAccountIndex ...uint32) *ethwallet.Wallet {
	wallet, err := c.Wallet()
	if err != nil {
		panic(err)
	}
	if len(optAccountIndex) > 0 {
		_, err = wallet.SelfDeriveAccountIndex(optAccountIndex[0])
		if err != nil {
			panic(err)
		}
	}
	return wallet
}

// FundAddress sets the balance of addr to optBalanceTarget ether, 100 by default.
func (c *Testchain) FundAddress(ctx context.Context, addr common.Address, optBalanceTarget ...uint32) error {
	target := ETHValue(100)
	if len(optBalanceTarget) > 0 {
		target = ETHValue(float64(optBalanceTarget[0]))
	}
	return c.Provider.SetBalance(ctx, addr, target)
}

// Deploy deploys a contract of the Contracts registry from the first dev account.
func (c *Testchain) Deploy(ctx context.Context, contractName string, opts ethdeploy.DeployOptions) (*ethcontract.Contract, *types.Receipt, error) {
	artifact, ok := c.Contracts.Get(contractName)
	if !ok {
		return nil, nil, fmt.Errorf("ethtest: contract artifact not found for name %s", contractName)
	}
	wallet, err := c.Wallet()
	if err != nil {
		return nil, nil, err
	}
	return ethdeploy.NewDeployer(wallet).Deploy(ctx, artifact, opts)
}

// SetStorageValue writes value at slot of addr. Addresses, hashes, byte slices
// up to 32 bytes and integers are accepted, see StorageWord.
func (c *Testchain) SetStorageValue(ctx context.Context, addr common.Address, slot *big.Int, value interface{}) error {
	word, err := StorageWord(value)
	if err != nil {
		return err
	}
	return c.Provider.SetStorageAt(ctx, addr, slot, word)
}

func (c *Testchain) Snapshot(ctx context.Context) (string, error) {
	return c.Provider.Snapshot(ctx)
}

func (c *Testchain) Revert(ctx context.Context, snapshotID string) error {
	ok, err := c.Provider.Revert(ctx, snapshotID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("ethtest: revert to snapshot %s failed", snapshotID)
	}
	return nil
}

// Shutdown stops a launched anvil process, it is a no-op for attached nodes.
// Safe to call more than once.
func (c *Testchain) Shutdown() {
	c.shutdownOnce.Do(func() {
		if c.cmd == nil || c.cmd.Process == nil {
			return
		}
		c.log.Infof("ethtest: stopping anvil (pid %d)", c.cmd.Process.Pid)

		_ = c.cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-c.exited:
		case <-time.After(ShutdownGracePeriod):
			_ = c.cmd.Process.Kill()
			<-c.exited
		}
	})
}

// StorageWord converts value to the 32-byte word stored in a slot.
func StorageWord(value interface{}) (common.Hash, error) {
	switch v := value.(type) {
	case common.Hash:
		return v, nil
	case common.Address:
		return common.BytesToHash(v.Bytes()), nil
	case *common.Address:
		return common.BytesToHash(v.Bytes()), nil
	case [32]byte:
		return common.Hash(v), nil
	case []byte:
		if len(v) > 32 {
			return common.Hash{}, fmt.Errorf("ethtest: storage value of %d bytes exceeds a word", len(v))
		}
		return common.BytesToHash(v), nil
	case *big.Int:
		if v.BitLen() > 256 {
			return common.Hash{}, fmt.Errorf("ethtest: storage value %s exceeds 256 bits", v)
		}
		return common.BytesToHash(math.U256Bytes(new(big.Int).Set(v))), nil
	case uint64:
		return common.BigToHash(new(big.Int).SetUint64(v)), nil
	case int:
		return StorageWord(big.NewInt(int64(v)))
	case bool:
		if v {
			return common.BigToHash(big.NewInt(1)), nil
		}
		return common.Hash{}, nil
	default:
		return common.Hash{}, fmt.Errorf("ethtest: unsupported storage value type %T", value)
	}
}
