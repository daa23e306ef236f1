/*
Package config loads objectstore settings.

Settings come from, in increasing precedence: built-in defaults, an optional
YAML file, and OBJECTSTORE_* environment variables. A .env file in the working
directory is loaded into the environment first. Keys are addressed by section
and name:

	database:
	  backend: mongodb
	  connection: mongodb://localhost:27017/objectstore
	  schema: TEST
	  union_schema: false
	supervisor:
	  interval: 10s
	  reconnect_delay: 1s
	log:
	  level: info
	  format: json
	metrics:
	  listen: 127.0.0.1:9090

OBJECTSTORE_DATABASE_BACKEND=memory overrides database.backend.
*/
package config
