// Package config loads ecaspace settings from YAML.
//
// Every scalar in the file may reference environment variables as ${VAR};
// a missing variable is an error rather than an empty string. Write $$ for
// a literal dollar sign.
//
//	rule: 110
//	initial:
//	  center: "1"
//	  left: "0"
//	  right: "0"
//	budget: 100ms
//	poll:
//	  attempts: 20
//	  interval: 100ms
//	observe:
//	  logging:
//	    enabled: true
//	    level: ${ECASPACE_LOG_LEVEL}
//	serve:
//	  addr: ":8080"
package config
