package gate

import (
	"sync"

	"tracker-client/internal/domain"
)

// Publisher is the subscription half of the session manager.
type Publisher interface {
	Subscribe(fn func(domain.Session)) (unsubscribe func())
}

// Watcher re-evaluates the current path whenever the session changes and
// reports each decision to onDecision.
type Watcher struct {
	mu         sync.Mutex
	path       string
	onDecision func(path string, d Decision)
	stop       func()
}

// Watch starts watching pub for the given initial path.
func Watch(pub Publisher, path string, onDecision func(path string, d Decision)) *Watcher {
	w := &Watcher{path: path, onDecision: onDecision}
	w.stop = pub.Subscribe(w.evaluate)
	return w
}

// SetPath records the path the user navigated to.
func (w *Watcher) SetPath(path string) {
	w.mu.Lock()
	w.path = path
	w.mu.Unlock()
}

func (w *Watcher) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

func (w *Watcher) evaluate(s domain.Session) {
	path := w.Path()
	d := Navigate(s, path)
	if !d.Allow {
		w.SetPath(d.Redirect)
	}
	w.onDecision(path, d)
}

// Close stops receiving session changes.
func (w *Watcher) Close() { w.stop() }
