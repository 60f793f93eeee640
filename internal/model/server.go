package model

import (
	"context"
	"net"
)

// SecurityLayer opens the listener the agent HTTP surface is served on.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is a long running network surface started and stopped by main.
type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}
