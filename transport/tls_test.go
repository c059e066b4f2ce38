package transport

import (
	"crypto/x509"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientTLSConfig_VerifiesDevServerCertNow(t *testing.T) {
	req := require.New(t)

	// Given a server running on the built-in dev certificate
	serverConf, err := ServerTLSConfig("", "")
	req.NoError(err)
	req.Len(serverConf.Certificates, 1)
	serverCert, err := x509.ParseCertificate(serverConf.Certificates[0].Certificate[0])
	req.NoError(err)

	// When a secure client verifies it against its own trust pool
	clientConf, err := ClientTLSConfig(false)
	req.NoError(err)
	req.False(clientConf.InsecureSkipVerify)
	req.NotNil(clientConf.RootCAs)

	_, err = serverCert.Verify(x509.VerifyOptions{
		Roots:       clientConf.RootCAs,
		DNSName:     "localhost",
		CurrentTime: time.Now(),
	})

	// Then the default handshake path succeeds today
	req.NoError(err)
}

func TestDevTLSCert_ValidityCoversThePresent(t *testing.T) {
	req := require.New(t)

	_, der, err := devTLSCert()
	req.NoError(err)
	cert, err := x509.ParseCertificate(der)
	req.NoError(err)

	now := time.Now()
	req.True(cert.NotBefore.Before(now))
	req.True(cert.NotAfter.After(now.Add(24 * time.Hour)))
}

func TestClientTLSConfig_InsecureSkipsVerification(t *testing.T) {
	req := require.New(t)

	conf, err := ClientTLSConfig(true)
	req.NoError(err)

	req.True(conf.InsecureSkipVerify)
	req.Equal([]string{alpnProtocol}, conf.NextProtos)
}
