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
	"crypto/tls"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	ctrl "sigs.k8s.io/controller-runtime"
)

// rotationSettle is how long the watcher waits after the last file event
// before reloading. The certificate and key land in separate operations,
// so reacting to the first event would read a half-rotated pair.
const rotationSettle = 250 * time.Millisecond

// CertRotationWatcher follows the webhook serving certificate on disk and
// reloads it when the mounted Secret rotates. The kubelet replaces Secret
// volume contents with an atomic symlink swap, so rotation shows up as
// create and rename events on the ..data link rather than writes to the
// files themselves.
type CertRotationWatcher struct {
	certPath string
	keyPath  string
	onRotate func(tls.Certificate)

	mu      sync.RWMutex
	current *tls.Certificate
}

// NewCertRotationWatcher returns a watcher for the given key pair. The
// onRotate hook, if any, runs after each successful reload.
func NewCertRotationWatcher(certPath, keyPath string, onRotate func(tls.Certificate)) *CertRotationWatcher {
	return &CertRotationWatcher{
		certPath: certPath,
		keyPath:  keyPath,
		onRotate: onRotate,
	}
}

// Current returns the last key pair the watcher loaded, or nil when no
// rotation has been observed yet.
func (w *CertRotationWatcher) Current() *tls.Certificate {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start watches the certificate directory until ctx is done. It satisfies
// manager.Runnable so the watcher lives alongside the webhook server.
func (w *CertRotationWatcher) Start(ctx context.Context) error {
	log := ctrl.Log.WithName("cert-rotation")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.certPath)); err != nil {
		return err
	}
	log.Info("Watching serving certificate", "cert", w.certPath, "key", w.keyPath)

	var settle *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if settle == nil {
				settle = time.NewTimer(rotationSettle)
				fire = settle.C
			} else {
				settle.Reset(rotationSettle)
			}

		case <-fire:
			settle = nil
			fire = nil
			if err := w.reload(); err != nil {
				log.Error(err, "Serving certificate unreadable after rotation")
				continue
			}
			log.Info("Serving certificate rotated")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error(err, "Certificate watch error")

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *CertRotationWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	if name == w.certPath || name == w.keyPath {
		return true
	}
	// Secret volumes swap the whole directory through the ..data symlink.
	return filepath.Base(name) == "..data"
}

func (w *CertRotationWatcher) reload() error {
	pair, err := tls.LoadX509KeyPair(w.certPath, w.keyPath)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.current = &pair
	w.mu.Unlock()

	if w.onRotate != nil {
		w.onRotate(pair)
	}
	return nil
}
