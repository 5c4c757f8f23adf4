// Package security builds the TLS setup for the loopback control channel.
// A shared secret derives a deterministic ed25519 key so both ends can pin each other.
package security

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"time"

	"github.com/rs/zerolog"
)

const Proto = "clickerwatch"

func MakeTLSConfig(secret string, logger zerolog.Logger) (*tls.Config, error) {
	//nolint:mnd,gosec //shut up
	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("rand.Int: %w", err)
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serialNumber,
		NotBefore:    now.Add(-time.Minute),
		NotAfter:     now.AddDate(1, 0, 0),
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}

	privateKey, publicKey, err := genKey(secret)
	if err != nil {
		return nil, err
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, publicKey, privateKey)
	if err != nil {
		return nil, fmt.Errorf("x509.CreateCertificate: %w", err)
	}

	privBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("x509.MarshalPKCS8PrivateKey: %w", err)
	}

	tlsCert, err := tls.X509KeyPair(
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER}),
		pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privBytes}),
	)
	if err != nil {
		return nil, fmt.Errorf("tls.X509KeyPair: %w", err)
	}

	ownPub, pinned := publicKey.(ed25519.PublicKey)

	conf := &tls.Config{
		Certificates: []tls.Certificate{tlsCert},
		NextProtos:   []string{Proto},
		// both ends present self-signed certs; VerifyPeerCertificate does the pinning
		InsecureSkipVerify: true, //nolint:gosec //shut up
		ClientAuth:         tls.RequireAnyClientCert,
		MinVersion:         tls.VersionTLS13,
	}

	populateKeyLog(logger, conf)

	conf.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return ErrPeerSecretMissing
		}

		peerCert, pErr := x509.ParseCertificate(rawCerts[0])
		if pErr != nil {
			return fmt.Errorf("parse peer cert: %w", pErr)
		}

		peerPub, peerPinned := peerCert.PublicKey.(ed25519.PublicKey)
		switch {
		case pinned && !peerPinned:
			return ErrPeerSecretMissing
		case !pinned && peerPinned:
			return ErrLocalSecretMissing
		case !pinned:
			return nil
		case !bytes.Equal(ownPub, peerPub):
			return ErrSecretMismatch
		}
		return nil
	}

	return conf, nil
}

func genKey(secret string) (crypto.PrivateKey, crypto.PublicKey, error) {
	if secret != "" {
		seed := sha256.Sum256([]byte(secret))
		pk := ed25519.NewKeyFromSeed(seed[:])
		return pk, pk.Public(), nil
	}

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("ecdsa.GenerateKey: %w", err)
	}
	return priv, priv.Public(), nil
}
