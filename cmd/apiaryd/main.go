package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/apiarium/apiary"
	"github.com/apiarium/apiary/api/apiv1"
	"github.com/apiarium/apiary/cmd/apiaryd/config"
	"github.com/apiarium/apiary/internal/logger"
	"github.com/apiarium/apiary/internal/version"
)

func main() {
	var configFile string
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}
	config.Load(configFile)
	logger.Init()
	log.Info("Loaded Config")
	c := config.Get()
	if c.Logging.Banner.Version {
		fmt.Print(version.Banner(80))
	}

	backs, err := config.LoadStorageBackends(c.Storage)
	if err != nil {
		log.Fatal(err)
	}
	sessions, err := config.LoadSessionManager(c.Sessions)
	if err != nil {
		log.Fatal(err)
	}
	failures, err := config.LoadFailureTracker(c.Lockout)
	if err != nil {
		log.WithError(err).Fatal("could not open login failure store")
	}
	defer func() {
		if cerr := failures.Close(); cerr != nil {
			log.WithError(cerr).Error("failed to close login failure store")
		}
	}()

	a := apiary.NewApiary(
		c.Server,
		backs,
		sessions,
		failures,
		&apiv1.Options{
			SecureCookies:     c.Server.TLS.Enabled || c.Server.Secure,
			PasswordMinLength: c.API.PasswordMinLength,
			LockoutThreshold:  c.Lockout.Threshold,
		},
	)
	a.Start()
}
