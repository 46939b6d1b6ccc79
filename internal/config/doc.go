// Package config provides configuration parsing for idom projects.
//
// The configuration is stored in idom.json at the project root.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "debug": true,
//	  "keyAttribute": "data-key",
//	  "serve": {
//	    "host": "localhost",
//	    "port": 4380,
//	    "allowedOrigins": ["http://localhost:5173"],
//	    "maxSessions": 100,
//	    "sessionTTL": "30m"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "idom",
//	    "path": "/metrics"
//	  },
//	  "output": {
//	    "pretty": true,
//	    "color": "auto"
//	  }
//	}
//
// keyAttribute names the attribute read as a node's key when existing
// markup is adopted. It defaults to "key"; null or "" disables key import.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg.Apply()
//
//	fmt.Println("Listening on", cfg.ServeAddress())
package config
