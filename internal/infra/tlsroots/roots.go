package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertsFound is returned when a CA file holds no certificate.
var ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM file")

// ReadCAs parses every CERTIFICATE block of file. Other blocks, such as a
// private key kept in the same bundle, are skipped.
func ReadCAs(file string) ([]*x509.Certificate, error) {
	rest, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("tlsroots: read ca file: %w", err)
	}

	var certs []*x509.Certificate
	for block, tail := pem.Decode(rest); block != nil; block, tail = pem.Decode(tail) {
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("tlsroots: %s: certificate %d: %w", file, len(certs)+1, err)
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCertsFound, file)
	}
	return certs, nil
}

// ClientConfig returns the TLS configuration the CLI dials with. caFile
// adds to the system roots; empty leaves them alone.
func ClientConfig(caFile string, insecureSkipVerify bool) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: insecureSkipVerify,
	}
	if caFile == "" {
		return cfg, nil
	}

	certs, err := ReadCAs(caFile)
	if err != nil {
		return nil, err
	}
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	for _, c := range certs {
		pool.AddCert(c)
	}
	cfg.RootCAs = pool
	return cfg, nil
}
