package ethtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os/exec"
	"strconv"
	"time"

	"github.com/0xsequence/urkit/ethartifact"
	"github.com/0xsequence/urkit/ethrpc"
	"github.com/0xsequence/urkit/util"
	"github.com/goware/logger"
)

var ErrAnvilNotFound = errors.New("ethtest: anvil binary not found")

type LaunchOptions struct {
	// AnvilBin is the anvil executable, looked up in PATH. Default "anvil".
	AnvilBin string

	// ForkURL is the rpc endpoint anvil forks state from. Empty runs a fresh chain.
	ForkURL         string
	ForkBlockNumber uint64

	ChainID uint64

	// Port to listen on, 0 picks a free port.
	Port int

	// Mnemonic of the funded dev accounts. Default ethwallet.DevMnemonic.
	Mnemonic string

	ExtraArgs []string

	StartupTimeout time.Duration

	Contracts *ethartifact.ContractRegistry
	Logger    logger.Logger

	ProviderOptions []ethrpc.Option
}

var DefaultLaunchOptions = LaunchOptions{
	AnvilBin:       "anvil",
	StartupTimeout: 30 * time.Second,
}

func (o LaunchOptions) args(port int) []string {
	args := []string{"--host", "127.0.0.1", "--port", strconv.Itoa(port)}
	if o.ForkURL != "" {
		args = append(args, "--fork-url", o.ForkURL)
		if o.ForkBlockNumber > 0 {
			args = append(args, "--fork-block-number", strconv.FormatUint(o.ForkBlockNumber, 10))
		}
	}
	if o.ChainID > 0 {
		args = append(args, "--chain-id", strconv.FormatUint(o.ChainID, 10))
	}
	if o.Mnemonic != "" {
		args = append(args, "--mnemonic", o.Mnemonic)
	}
	return append(args, o.ExtraArgs...)
}

// Launch starts anvil and returns a testchain attached to it once the node
// answers eth_chainId. The caller owns the process and must call Shutdown.
func Launch(ctx context.Context, opts LaunchOptions) (*Testchain, error) {
	if opts.AnvilBin == "" {
		opts.AnvilBin = DefaultLaunchOptions.AnvilBin
	}
	if opts.StartupTimeout == 0 {
		opts.StartupTimeout = DefaultLaunchOptions.StartupTimeout
	}
	if opts.Logger == nil {
		opts.Logger = defaultLogger()
	}

	bin, err := exec.LookPath(opts.AnvilBin)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAnvilNotFound, opts.AnvilBin, err)
	}

	port := opts.Port
	if port == 0 {
		port, err = freePort()
		if err != nil {
			return nil, fmt.Errorf("ethtest: %w", err)
		}
	}

	output, outputWriter := io.Pipe()
	cmd := exec.Command(bin, opts.args(port)...)
	cmd.Stdout = outputWriter
	cmd.Stderr = outputWriter

	opts.Logger.Infof("ethtest: starting %s on port %d", bin, port)
	if err := cmd.Start(); err != nil {
		outputWriter.Close()
		return nil, fmt.Errorf("ethtest: start anvil: %w", err)
	}
	pipeLogs(output, opts.Logger)

	exited := make(chan struct{})
	var waitErr error
	go func() {
		waitErr = cmd.Wait()
		outputWriter.Close()
		close(exited)
	}()

	tc, err := newTestchain(TestchainOptions{
		NodeURL:        fmt.Sprintf("http://127.0.0.1:%d", port),
		Mnemonic:       opts.Mnemonic,
		ConnectTimeout: opts.StartupTimeout,
		Contracts:      opts.Contracts,
		Logger:         opts.Logger,

		ProviderOptions: opts.ProviderOptions,
	})
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}
	tc.cmd = cmd
	tc.exited = exited

	connectCtx, cancel := context.WithTimeout(ctx, opts.StartupTimeout)
	defer cancel()

	go func() {
		select {
		case <-exited:
			cancel()
		case <-connectCtx.Done():
		}
	}()

	if err := tc.connect(connectCtx); err != nil {
		select {
		case <-exited:
			return nil, fmt.Errorf("ethtest: anvil exited during startup: %v", waitErr)
		default:
		}
		tc.Shutdown()
		return nil, err
	}
	return tc, nil
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// pipeLogs forwards anvil output to log at debug level without ever blocking
// the process on a slow logger.
func pipeLogs(r io.Reader, log logger.Logger) {
	lines := util.PipeLines(r, log, 1000)
	go func() {
		for line := range lines {
			log.Debugf("anvil: %s", line)
		}
	}()
}

func defaultLogger() logger.Logger {
	return logger.NewLogger(logger.LogLevel_WARN)
}
