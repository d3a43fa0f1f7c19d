package util

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/0xsequence/urkit/sonic"
)

// ReadTestConfig reads the flat json object of test settings at
// testConfigFile, ie. {"MAINNET_URL": "..."}. A missing file is an empty
// config. Environment variables of the same names take precedence.
func ReadTestConfig(testConfigFile string) (map[string]string, error) {
	config := map[string]string{}

	data, err := os.ReadFile(testConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		data, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s file could not be read: %w", testConfigFile, err)
	}
	if len(data) > 0 {
		if err := sonic.Config.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("%s file json parsing error: %w", testConfigFile, err)
		}
	}

	for key := range config {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			config[key] = v
		}
	}
	if v := os.Getenv("MAINNET_URL"); v != "" {
		config["MAINNET_URL"] = v
	}
	return config, nil
}
