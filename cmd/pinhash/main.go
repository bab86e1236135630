package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/angelmondragon/totem-backend/pkg/config"
	"github.com/angelmondragon/totem-backend/pkg/security"
	"github.com/kelseyhightower/envconfig"
)

// pinhash prints an argon2id hash suitable for TOTEM_ADMIN_PIN_HASH.
func main() {
	pin := flag.String("pin", "", "admin PIN to hash")
	flag.Parse()

	if *pin == "" {
		fmt.Fprintln(os.Stderr, "missing -pin")
		os.Exit(1)
	}

	var adminCfg config.AdminConfig
	if err := envconfig.Process(config.EnvPrefix, &adminCfg); err != nil {
		fmt.Fprintf(os.Stderr, "parsing admin config: %v\n", err)
		os.Exit(1)
	}

	hash, err := security.HashPIN(*pin, adminCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash pin: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
