// Package config carries scriptd's own daemon-level settings, layered on
// top of the inherited misc/net-tcp-config plumbing.
package config

import (
	"io/ioutil"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/benland100/scriptd/misc"
)

// DaemonConfig carries ambient daemon settings beyond the literal `scriptd
// [port]` CLI contract: acceptor parallelism, the bounded SPAWN→ready
// handshake timeout, the KILL grace period before SIGKILL, and the
// housekeeping tick interval. Fields a settings file leaves out keep their
// DefaultDaemonConfig values; a zero value that is set is used as-is (a zero
// HousekeepingInterval disables the tick). Absence of a settings file is not
// an error.
type DaemonConfig struct {
	Port                 int           `yaml:"port"`
	AcceptorSize         uint8         `yaml:"acceptorSize"`
	ReadyTimeout         time.Duration `yaml:"readyTimeout"`
	KillGrace            time.Duration `yaml:"killGrace"`
	HousekeepingInterval time.Duration `yaml:"housekeepingInterval"`
}

// DefaultDaemonConfig returns the settings scriptd runs with when no
// settings file is given.
func DefaultDaemonConfig() DaemonConfig {
	return DaemonConfig{
		Port:                 8000,
		AcceptorSize:         4,
		ReadyTimeout:         5 * time.Second,
		KillGrace:            3 * time.Second,
		HousekeepingInterval: 30 * time.Second,
	}
}

// LoadDaemonConfig reads an optional YAML settings file at path and merges
// it onto DefaultDaemonConfig. A missing file is not an error: defaults
// apply as-is. This mirrors the inherited misc.LoadYmlFile/call-site
// pattern - the generic map is loaded first (validating the file parses as
// YAML at all), then the same bytes are decoded directly into the typed
// struct.
func LoadDaemonConfig(path string) (DaemonConfig, error) {

	cfg := DefaultDaemonConfig()

	if path == "" {
		return cfg, nil
	}

	if _, err := misc.LoadYmlFile(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
