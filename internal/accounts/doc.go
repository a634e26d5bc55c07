// Package accounts provides the account record store consulted by the
// authorization pipeline during resource lookup.
package accounts
