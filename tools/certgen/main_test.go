package main

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestGenerateCA(t *testing.T) {
	caCert, _, err := generateCA()
	if err != nil {
		t.Fatalf("generateCA: %v", err)
	}

	if !caCert.IsCA || !caCert.BasicConstraintsValid {
		t.Error("CA certificate should have IsCA and BasicConstraintsValid")
	}

	wantKU := x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature
	if caCert.KeyUsage&wantKU != wantKU {
		t.Errorf("CA KeyUsage = %v; want bits %v", caCert.KeyUsage, wantKU)
	}

	// Validity ~10 years
	if dur := caCert.NotAfter.Sub(caCert.NotBefore); dur < 9*365*24*time.Hour {
		t.Errorf("CA validity too short: %v", dur)
	}
}

func TestGenerateServerCert_Hosts(t *testing.T) {
	caCert, caKey, err := generateCA()
	if err != nil {
		t.Fatalf("generateCA: %v", err)
	}
	cert, _, err := generateServerCert([]string{"localhost", " 127.0.0.1 ", ""}, caCert, caKey)
	if err != nil {
		t.Fatalf("generateServerCert: %v", err)
	}

	if cert.Subject.CommonName != "localhost" {
		t.Errorf("CommonName = %q; want \"localhost\"", cert.Subject.CommonName)
	}
	if !reflect.DeepEqual(cert.DNSNames, []string{"localhost"}) {
		t.Errorf("DNSNames = %v; want [localhost]", cert.DNSNames)
	}
	if len(cert.IPAddresses) != 1 || !cert.IPAddresses[0].Equal(net.ParseIP("127.0.0.1")) {
		t.Errorf("IPAddresses = %v; want [127.0.0.1]", cert.IPAddresses)
	}
	if err := cert.CheckSignatureFrom(caCert); err != nil {
		t.Errorf("certificate not signed by CA: %v", err)
	}
	if !reflect.DeepEqual(cert.ExtKeyUsage, []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}) {
		t.Errorf("ExtKeyUsage = %v; want [ServerAuth]", cert.ExtKeyUsage)
	}

	pool := x509.NewCertPool()
	pool.AddCert(caCert)
	if _, err := cert.Verify(x509.VerifyOptions{DNSName: "localhost", Roots: pool}); err != nil {
		t.Errorf("verify against CA: %v", err)
	}
}

func TestGenerateServerCert_NoHosts(t *testing.T) {
	caCert, caKey, err := generateCA()
	if err != nil {
		t.Fatalf("generateCA: %v", err)
	}
	if _, _, err := generateServerCert([]string{" "}, caCert, caKey); err == nil {
		t.Error("expected error without hosts")
	}
}

func TestRun_WritesLoadableKeyPair(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	if err := run(dir, []string{"localhost"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, name := range []string{"ca.crt", "ca.key", "server.crt", "server.key"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	info, err := os.Stat(filepath.Join(dir, "server.key"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("server.key mode = %v; want 0600", perm)
	}

	data, err := os.ReadFile(filepath.Join(dir, "ca.crt"))
	if err != nil {
		t.Fatal(err)
	}
	if block, _ := pem.Decode(data); block == nil || block.Type != "CERTIFICATE" {
		t.Error("ca.crt is not a PEM certificate")
	}

	if _, err := tls.LoadX509KeyPair(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key")); err != nil {
		t.Errorf("LoadX509KeyPair: %v", err)
	}
}
