// Package config provides MIMDB's configuration loading.
//
// # Usage
//
//	var cfg config.Config
//	if err := config.Load("config.yaml", &cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// # Environment Variable Substitution
//
//	# config.yaml
//	server:
//	  address: ${MIMDB_ADDR}
//	storage:
//	  data_dir: /var/lib/mimdb
//
// Load substitutes ${VAR_NAME} with the environment variable's value
// before parsing YAML, so secrets and deployment-specific paths never
// need to be committed to the config file itself.
package config
