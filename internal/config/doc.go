// Package config provides configuration parsing for statekit applications.
//
// The configuration is stored in statekit.json at the project root.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "name": "shop",
//	  "debug": false,
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "devtools": {
//	    "host": "localhost",
//	    "port": 7070,
//	    "eventBuffer": 256,
//	    "allowOrigins": ["http://localhost:3000"]
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "shop"
//	  },
//	  "tracing": {
//	    "enabled": false,
//	    "tracerName": "shop"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	logger := cfg.NewLogger(os.Stderr)
//	logger.Info("devtools", "addr", cfg.Address())
package config
