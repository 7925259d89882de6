// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, files). It provides type-safe
// access to the settings needed by the API client, the notification center,
// the task runner and the logger while keeping configuration details separate
// from the pipeline itself.
package config
