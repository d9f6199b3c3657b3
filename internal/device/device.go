// Package device models the on-disk directory holding a simulated device's
// credentials: the gateway hostname, the client certificate and key presented
// during the mutual TLS handshake, and the root bundle the gateway's server
// certificate is verified against.
package device

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/foundriesio/fake-device/internal/gateway"
)

// Well-known file names inside a device directory.
const (
	HostnameFile   = "dghostname"
	ClientCertFile = "client.pem"
	PrivateKeyFile = "pkey.pem"
	TrustRootFile  = "root.crt"

	// CAKeyFile keeps the throwaway CA key produced by Provision so a
	// gateway under test can sign additional certificates with it.
	CAKeyFile = "ca.key"
)

// Directory is a device directory on disk.
type Directory struct {
	Path string
}

// Hostname reads the gateway hostname file and trims surrounding whitespace.
// A missing or unreadable file is a config error; it is reported before any
// network activity happens.
func (d Directory) Hostname() (string, error) {
	path := filepath.Join(d.Path, HostnameFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", gateway.NewConfigReadError(path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Credentials returns the paths of the mutual TLS material. The files are
// not checked for existence here: absence is reported at request time as a
// connection failure, which is the behavior tests exercising broken device
// directories depend on.
func (d Directory) Credentials() gateway.Credentials {
	return gateway.Credentials{
		CertFile:      filepath.Join(d.Path, ClientCertFile),
		KeyFile:       filepath.Join(d.Path, PrivateKeyFile),
		TrustRootFile: filepath.Join(d.Path, TrustRootFile),
	}
}
