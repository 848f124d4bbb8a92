package config

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"
	"gopkg.in/yaml.v3"

	"github.com/apiarium/apiary"
)

// Config holds the full apiaryd configuration.
type Config struct {
	Server   apiary.ServerConf `yaml:"server"`
	Logging  loggingConf       `yaml:"logging"`
	Storage  storageConf       `yaml:"storage"`
	Sessions sessionsConf      `yaml:"sessions"`
	Lockout  lockoutConf       `yaml:"lockout"`
	API      apiConf           `yaml:"api"`
}

// apiConf holds tunables of the action API under the `api` key.
type apiConf struct {
	// PasswordMinLength is the minimum accepted password length
	PasswordMinLength int `yaml:"password_min_length"`
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8765
	}
	if err := c.Logging.validate(); err != nil {
		return err
	}
	if err := c.Storage.validate(); err != nil {
		return err
	}
	if err := c.Sessions.validate(); err != nil {
		return err
	}
	return c.Lockout.validate()
}

var conf *Config

// Get returns the loaded Config.
func Get() *Config {
	return conf
}

// possibleConfigLocations holds the default file locations where the
// config file is searched when none was passed on the command line.
var possibleConfigLocations = []string{
	"config.yaml",
	"/etc/apiary/config.yaml",
}

// Load loads the configuration from the passed file, or from the first
// existing default location when file is empty.
func Load(file string) {
	if file == "" {
		for _, loc := range possibleConfigLocations {
			if fileutils.FileExists(loc) {
				file = loc
				break
			}
		}
	}
	if file == "" {
		log.Fatal("no config file found")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		log.WithError(errors.WithStack(err)).Fatal("could not read config file")
	}
	c := &Config{
		Logging:  defaultLoggingConf,
		Storage:  defaultStorageConf,
		Sessions: defaultSessionsConf,
		Lockout:  defaultLockoutConf,
		API:      apiConf{PasswordMinLength: 7},
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		log.WithError(errors.WithStack(err)).Fatal("could not parse config file")
	}
	if err = c.validate(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}
	conf = c
}
