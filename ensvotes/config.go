package ensvotes

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/0xsequence/urkit/ethens"
	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// EnvForkURL overrides Config.ForkURL.
const EnvForkURL = "URKIT_FORK_URL"

type Config struct {
	// ForkURL is the rpc endpoint anvil forks mainnet from.
	ForkURL   string `toml:"fork_url" json:"forkUrl" validate:"omitempty,url"`
	ForkBlock uint64 `toml:"fork_block" json:"forkBlock"`

	// RPCURL attaches to a running dev node instead of launching anvil.
	RPCURL   string `toml:"rpc_url" json:"rpcUrl" validate:"omitempty,url"`
	AnvilBin string `toml:"anvil_bin" json:"anvilBin"`
	Port     int    `toml:"port" json:"port" validate:"min=0,max=65535"`

	// ArtifactsDir is the forge out/ directory holding the resolver contracts.
	ArtifactsDir string `toml:"artifacts_dir" json:"artifactsDir" validate:"required"`

	Registry string   `toml:"registry" json:"registry" validate:"required,eth_addr"`
	Token    string   `toml:"token" json:"token" validate:"required,eth_addr"`
	Gateways []string `toml:"gateways" json:"gateways" validate:"dive,url"`

	Basename string   `toml:"basename" json:"basename" validate:"required"`
	Voters   []string `toml:"voters" json:"voters" validate:"required,min=1,dive,required"`
	TextKey  string   `toml:"text_key" json:"textKey" validate:"required"`

	// HookChainID is the chain the hook targets, WrongChainID the mismatched one.
	HookChainID  uint64 `toml:"hook_chain_id" json:"hookChainId" validate:"required"`
	WrongChainID uint64 `toml:"wrong_chain_id" json:"wrongChainId" validate:"required,nefield=HookChainID"`

	// Deployments reuses contracts already on the node, by artifact name,
	// instead of deploying them. Either all four are given or none.
	Deployments map[string]string `toml:"deployments" json:"deployments,omitempty" validate:"omitempty,len=4,dive,keys,oneof=HookVerifier FakeVotesResolver ENSVotesResolver UR,endkeys,eth_addr"`
}

func DefaultConfig() Config {
	return Config{
		ForkURL:      "https://rpc.ankr.com/eth",
		AnvilBin:     "anvil",
		ArtifactsDir: "out",
		Registry:     ethens.RegistryAddress.Hex(),
		Token:        ethens.ENSTokenAddress.Hex(),
		Gateways:     append([]string{}, ethens.DefaultGateways...),
		Basename:     "votes.eth",
		Voters:       []string{"premm.eth", "nick.eth"},
		TextKey:      "ens.votes",
		HookChainID:  1,
		WrongChainID: 2,
	}
}

// LoadConfig reads a toml config over DefaultConfig, then applies the
// environment. An empty path only applies the environment.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("ensvotes: config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv loads .env when present and applies URKIT_FORK_URL.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("ensvotes: .env: %w", err)
	}
	if v := os.Getenv(EnvForkURL); v != "" {
		c.ForkURL = v
	}
	return nil
}

var validate = validator.New()

func (c Config) Validate() error {
	if c.ForkURL == "" && c.RPCURL == "" {
		return fmt.Errorf("ensvotes: invalid config: fork_url or rpc_url is required")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("ensvotes: invalid config: %w", err)
	}
	return nil
}
