package app

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const (
	serialNumber = 1
	ip4GrayZone  = 127
	yearsGrant   = 1
	RSALen       = 4096
	CertsPerm    = 0600
	certsDirPerm = 0700
)

// CreateCertificates generates a self-signed certificate for local HTTPS
// and writes the PEM pair to the given paths.
func CreateCertificates(certPath string, keyPath string, logger *zap.SugaredLogger) error {
	cert := &x509.Certificate{
		SerialNumber: big.NewInt(serialNumber),
		Subject: pkix.Name{
			Organization: []string{"QRLink"},
			Country:      []string{"RU"},
		},
		IPAddresses:  []net.IP{net.IPv4(ip4GrayZone, 0, 0, 1), net.IPv6loopback},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().AddDate(yearsGrant, 0, 0),
		SubjectKeyId: []byte{1, 2, 3, 4, 6},
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, RSALen)
	if err != nil {
		return fmt.Errorf("error generating RSA key: %w", err)
	}

	certBytes, err := x509.CreateCertificate(rand.Reader, cert, cert, &privateKey.PublicKey, privateKey)
	if err != nil {
		return fmt.Errorf("error creating certificate: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: certBytes,
	})

	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	for _, path := range []string{certPath, keyPath} {
		if err := os.MkdirAll(filepath.Dir(path), certsDirPerm); err != nil {
			return fmt.Errorf("error creating certs dir: %w", err)
		}
	}

	if err := os.WriteFile(certPath, certPEM, CertsPerm); err != nil {
		return fmt.Errorf("error writing certificate: %w", err)
	}
	if err := os.WriteFile(keyPath, keyPEM, CertsPerm); err != nil {
		return fmt.Errorf("error writing private key: %w", err)
	}

	logger.Infof("self-signed certificate written to %s", certPath)

	return nil
}
