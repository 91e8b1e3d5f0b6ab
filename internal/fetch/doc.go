// Package fetch downloads the distribution installer binary from the
// configured mirror. Transfers retry on transient failures and the result
// is swapped into place atomically, optionally after SHA-256 verification.
package fetch
