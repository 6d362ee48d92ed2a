// Package secrets resolves ${secret:name} references in credential fields
// of the configuration.
//
// Secrets are looked up in order from a directory of secret files (one file
// per secret, as mounted by Kubernetes) and from environment variables:
//
//	store:
//	  postgres:
//	    dsn: ${secret:pg-dsn}
//
// resolves from <secrets.dir>/pg-dsn or, failing that, from
// EVENTKEEPER_SECRET_PG_DSN. Secret values are never logged.
package secrets
