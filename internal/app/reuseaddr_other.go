//go:build !unix

package app

import "syscall"

// The runtime already applies the platform's reuse semantics here.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	return nil
}
