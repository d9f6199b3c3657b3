package device

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CertificateInfo describes one certificate found in a device directory.
type CertificateInfo struct {
	File      string    `json:"file"`
	Subject   string    `json:"subject"`
	Issuer    string    `json:"issuer"`
	NotBefore time.Time `json:"not_before"`
	NotAfter  time.Time `json:"not_after"`
	Status    string    `json:"status"`
}

// Certificate status values reported by Inspect.
const (
	StatusValid       = "valid"
	StatusExpired     = "expired"
	StatusNotYetValid = "not_yet_valid"
	StatusExpiresSoon = "expires_soon"
)

const expirySoonWindow = 30 * 24 * time.Hour

// Inspect reads the client certificate and trust root of a device directory
// and reports subject, issuer, validity window, and expiry status for each.
func (d Directory) Inspect() ([]CertificateInfo, error) {
	var infos []CertificateInfo
	for _, name := range []string{ClientCertFile, TrustRootFile} {
		path := filepath.Join(d.Path, name)
		fileInfos, err := inspectFile(path)
		if err != nil {
			return nil, err
		}
		infos = append(infos, fileInfos...)
	}
	return infos, nil
}

// inspectFile parses every CERTIFICATE block in a PEM file. The trust root
// may bundle more than one certificate.
func inspectFile(path string) ([]CertificateInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read certificate file: %w", err)
	}

	var infos []CertificateInfo
	for rest := data; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse certificate in %s: %w", path, err)
		}
		infos = append(infos, CertificateInfo{
			File:      path,
			Subject:   cert.Subject.String(),
			Issuer:    cert.Issuer.String(),
			NotBefore: cert.NotBefore,
			NotAfter:  cert.NotAfter,
			Status:    certStatus(cert, time.Now()),
		})
	}

	if len(infos) == 0 {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return infos, nil
}

func certStatus(cert *x509.Certificate, now time.Time) string {
	switch {
	case now.After(cert.NotAfter):
		return StatusExpired
	case now.Before(cert.NotBefore):
		return StatusNotYetValid
	case cert.NotAfter.Sub(now) < expirySoonWindow:
		return StatusExpiresSoon
	default:
		return StatusValid
	}
}
