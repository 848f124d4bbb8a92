package config

import (
	"github.com/pkg/errors"

	"github.com/apiarium/apiary/lockout"
)

// lockoutConf configures the durable login-failure store under the
// `lockout` key.
type lockoutConf struct {
	// DataDir is the directory holding the failure store
	DataDir string `yaml:"data_dir"`
	// Threshold is the failure count at which an account's credential is
	// cleared
	Threshold int `yaml:"threshold"`
}

func (c *lockoutConf) validate() error {
	if c.DataDir == "" {
		return errors.New("error in lockout conf: data_dir must be specified")
	}
	if c.Threshold <= 0 {
		c.Threshold = lockout.DefaultThreshold
	}
	return nil
}

var defaultLockoutConf = lockoutConf{
	Threshold: lockout.DefaultThreshold,
}

// LoadFailureTracker opens the durable login-failure store.
func LoadFailureTracker(c lockoutConf) (*lockout.Tracker, error) {
	return lockout.Open(c.DataDir)
}
