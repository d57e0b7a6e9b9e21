//go:build !linux

package telemetry

import "syscall"

// reusePort is a no-op off Linux; port sharing is a deployment
// concern on the Pi only.
func reusePort(network, address string, c syscall.RawConn) error {
	return nil
}
