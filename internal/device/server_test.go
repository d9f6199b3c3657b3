package device

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundriesio/fake-device/internal/gateway"
)

func TestIssueServerCertificateVerifiesAgainstTrustRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Provision(dir, ProvisionOptions{Hostname: "localhost"}))

	d := Directory{Path: dir}
	serverCert, err := d.IssueServerCertificate([]string{"localhost", "127.0.0.1"})
	require.NoError(t, err)
	require.NotEmpty(t, serverCert.Certificate)

	leaf, err := x509.ParseCertificate(serverCert.Certificate[0])
	require.NoError(t, err)

	roots, err := d.TrustRootPool()
	require.NoError(t, err)

	_, err = leaf.Verify(x509.VerifyOptions{
		Roots:     roots,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	})
	assert.NoError(t, err)

	assert.Contains(t, leaf.DNSNames, "localhost")
	require.Len(t, leaf.IPAddresses, 1)
	assert.Equal(t, "127.0.0.1", leaf.IPAddresses[0].String())
}

func TestIssueServerCertificateRequiresHosts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Provision(dir, ProvisionOptions{Hostname: "localhost"}))

	_, err := Directory{Path: dir}.IssueServerCertificate(nil)
	require.Error(t, err)
}

// Full path: provision a device directory, stand up a gateway that requires
// the device's client certificate, and complete one GET through the client.
func TestProvisionedDeviceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Provision(dir, ProvisionOptions{Hostname: "localhost"}))
	d := Directory{Path: dir}

	serverCert, err := d.IssueServerCertificate([]string{"localhost", "127.0.0.1"})
	require.NoError(t, err)
	clientCAs, err := d.TrustRootPool()
	require.NoError(t, err)

	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items", r.URL.Path)
		require.Len(t, r.TLS.PeerCertificates, 1)
		assert.Equal(t, "fake-device", r.TLS.PeerCertificates[0].Subject.CommonName)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))
	server.TLS = &tls.Config{
		Certificates: []tls.Certificate{serverCert},
		ClientCAs:    clientCAs,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS12,
	}
	server.StartTLS()
	t.Cleanup(server.Close)

	_, portStr, err := net.SplitHostPort(server.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	hostname, err := d.Hostname()
	require.NoError(t, err)

	client := gateway.Client{}
	outcome, err := client.Do(context.Background(), http.MethodGet,
		gateway.Target{Hostname: hostname, Port: port, Resource: "/items"},
		d.Credentials())
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, outcome.StatusCode)
	assert.Equal(t, "created", outcome.Body)
}
