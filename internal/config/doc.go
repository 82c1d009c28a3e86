// Package config loads the dashboard configuration.
//
// Values come from three layers, later layers winning:
//
//	1. Default()
//	2. A YAML file: $ECDASH_CONFIG, or ./config.yaml when it exists
//	3. ECDASH_* environment variables (a ./.env file is read into the environment first)
//
// Example config.yaml:
//
//	server:
//	  port: 8501
//	data:
//	  dir: /srv/experiment
//	charts:
//	  width: 1200
//
// The same settings as environment variables:
//
//	ECDASH_SERVER_PORT=8501
//	ECDASH_DATA_DIR=/srv/experiment
//	ECDASH_CHARTS_WIDTH=1200
//
// The result is validated with go-playground/validator before it is returned.
package config
