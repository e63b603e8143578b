// Package accounts provides ad account discovery and inspection for the
// Meta Marketing API.
package accounts
