/*
Copyright 2024 The Clair authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package webhook

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CertRotationWatcher", func() {
	var (
		tempDir  string
		certPath string
		keyPath  string
		rotated  int
	)

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
		certPath = filepath.Join(tempDir, "tls.crt")
		keyPath = filepath.Join(tempDir, "tls.key")
		rotated = 0
		Expect(writeServingPair(certPath, keyPath)).To(Succeed())
	})

	Describe("reload", func() {
		It("loads the mounted key pair and notifies the hook", func() {
			w := NewCertRotationWatcher(certPath, keyPath, func(tls.Certificate) { rotated++ })
			Expect(w.Current()).To(BeNil())

			Expect(w.reload()).To(Succeed())

			Expect(w.Current()).NotTo(BeNil())
			Expect(rotated).To(Equal(1))
		})

		It("does not invoke the hook when the pair is unreadable", func() {
			w := NewCertRotationWatcher(certPath, keyPath, func(tls.Certificate) { rotated++ })
			Expect(os.Remove(keyPath)).To(Succeed())

			Expect(w.reload()).NotTo(Succeed())

			Expect(w.Current()).To(BeNil())
			Expect(rotated).To(BeZero())
		})

		It("rejects garbage certificate content", func() {
			Expect(os.WriteFile(certPath, []byte("not a certificate"), 0o600)).To(Succeed())

			w := NewCertRotationWatcher(certPath, keyPath, nil)
			Expect(w.reload()).NotTo(Succeed())
		})
	})

	Describe("relevant", func() {
		var w *CertRotationWatcher

		BeforeEach(func() {
			w = NewCertRotationWatcher(certPath, keyPath, nil)
		})

		It("fires on changes to the watched pair", func() {
			Expect(w.relevant(fsnotify.Event{Name: certPath, Op: fsnotify.Write})).To(BeTrue())
			Expect(w.relevant(fsnotify.Event{Name: keyPath, Op: fsnotify.Create})).To(BeTrue())
			Expect(w.relevant(fsnotify.Event{Name: certPath, Op: fsnotify.Rename})).To(BeTrue())
		})

		It("fires on the Secret volume symlink swap", func() {
			link := filepath.Join(tempDir, "..data")
			Expect(w.relevant(fsnotify.Event{Name: link, Op: fsnotify.Create})).To(BeTrue())
		})

		It("ignores unrelated files and chmods", func() {
			other := filepath.Join(tempDir, "ca.crt")
			Expect(w.relevant(fsnotify.Event{Name: other, Op: fsnotify.Write})).To(BeFalse())
			Expect(w.relevant(fsnotify.Event{Name: certPath, Op: fsnotify.Chmod})).To(BeFalse())
		})
	})

	Describe("Start", func() {
		It("reloads after the pair is rewritten", func() {
			w := NewCertRotationWatcher(certPath, keyPath, nil)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- w.Start(ctx)
			}()

			// Let the watch get established before rotating.
			time.Sleep(100 * time.Millisecond)
			Expect(writeServingPair(certPath, keyPath)).To(Succeed())

			Eventually(w.Current, 3*time.Second).ShouldNot(BeNil())

			cancel()
			Eventually(done, 2*time.Second).Should(Receive(BeNil()))
		})

		It("fails when the certificate directory does not exist", func() {
			missing := filepath.Join(tempDir, "nonexistent", "tls.crt")
			w := NewCertRotationWatcher(missing, keyPath, nil)

			Expect(w.Start(context.Background())).NotTo(Succeed())
		})

		It("stops when the context ends", func() {
			w := NewCertRotationWatcher(certPath, keyPath, nil)
			ctx, cancel := context.WithCancel(context.Background())

			done := make(chan error, 1)
			go func() {
				done <- w.Start(ctx)
			}()

			time.Sleep(50 * time.Millisecond)
			cancel()

			Eventually(done, 2*time.Second).Should(Receive(BeNil()))
		})
	})
})

// writeServingPair generates a self-signed serving certificate the way the
// operator's deployment manifests provision one.
func writeServingPair(certPath, keyPath string) error {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return err
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: "clair-operator-webhook"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return err
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return err
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	if err := os.WriteFile(certPath, certPEM, 0o600); err != nil {
		return err
	}
	return os.WriteFile(keyPath, keyPEM, 0o600)
}
