// Package server provides the network listeners the agent HTTP surface binds to.
package server

import (
	"crypto/tls"
	"fmt"
	"net"

	"github.com/dtroode/qubras-auth/internal/model"
)

// TLSListener serves the OAuth callback and state endpoints over HTTPS.
type TLSListener struct {
	certFile string
	keyFile  string
}

// NewTLSListener creates a TLSListener using a PEM certificate and key pair.
func NewTLSListener(certFile, keyFile string) *TLSListener {
	return &TLSListener{certFile: certFile, keyFile: keyFile}
}

// Listen loads the key pair on every call so a rotated certificate is picked
// up by the next restart of the server.
func (l *TLSListener) Listen(protocol, addr string) (net.Listener, error) {
	cert, err := tls.LoadX509KeyPair(l.certFile, l.keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	return tls.Listen(protocol, addr, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})
}

// PlainListener listens without TLS, for local development behind a proxy.
type PlainListener struct{}

func NewPlainListener() *PlainListener {
	return &PlainListener{}
}

func (l *PlainListener) Listen(protocol, addr string) (net.Listener, error) {
	return net.Listen(protocol, addr)
}

// NewSecurityLayer picks the TLS listener when a certificate is configured.
func NewSecurityLayer(enableHTTPS bool, certFile, keyFile string) (model.SecurityLayer, error) {
	if !enableHTTPS {
		return NewPlainListener(), nil
	}
	if certFile == "" || keyFile == "" {
		return nil, fmt.Errorf("https enabled without certificate and key files")
	}
	return NewTLSListener(certFile, keyFile), nil
}
