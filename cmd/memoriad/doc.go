/*
Package main provides the memoriad server entry point.

# Overview

cmd/memoriad is the executable for the memoria engine. It serves the REST
API, runs database migrations and reports version and health information.
Configuration comes from YAML files and MEMORIA_* environment variables,
with an optional .env file loaded at startup.

# Subcommands

  - serve    — start the API and metrics servers
  - migrate  — schema migration management (up, down, status, goto, force)
  - version  — print build information
  - health   — probe a running server
  - help     — usage

# Serving

The serve command wires the memory engine over the configured database and
document store, then exposes it through two HTTP listeners: the API port
with the full middleware chain (recovery, request id, security headers,
logging, metrics, tracing, CORS, rate limiting, optional JWT auth) and a
separate metrics port serving Prometheus /metrics. Shutdown is graceful on
SIGINT/SIGTERM.
*/
package main
