// Package tlsutil centralizes TLS settings for memoria's HTTP listeners and
// outbound clients: TLS 1.2 minimum, AEAD cipher suites only.
package tlsutil
