// Package windowtest provides an in-memory window.Handle for tests.
package windowtest

import "sync"

// Fake records every call made through the window.Handle interface.
type Fake struct {
	mu sync.Mutex

	IgnoreCursor bool
	Decorated    bool
	OnTop        bool
	Shadow       bool
	CurrentURL   string

	Evals   []string
	Reloads int

	// Fail maps a method name ("SetDecorations", "Eval", ...) to the error it returns.
	Fail map[string]error
}

// New returns a Fake in the unlocked configuration.
func New(url string) *Fake {
	return &Fake{Decorated: true, Shadow: true, CurrentURL: url, Fail: map[string]error{}}
}

func (f *Fake) fail(name string) error {
	if f.Fail == nil {
		return nil
	}
	return f.Fail[name]
}

func (f *Fake) SetIgnoreCursorEvents(v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("SetIgnoreCursorEvents"); err != nil {
		return err
	}
	f.IgnoreCursor = v
	return nil
}

func (f *Fake) SetDecorations(v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("SetDecorations"); err != nil {
		return err
	}
	f.Decorated = v
	return nil
}

func (f *Fake) SetAlwaysOnTop(v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("SetAlwaysOnTop"); err != nil {
		return err
	}
	f.OnTop = v
	return nil
}

func (f *Fake) SetShadow(v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("SetShadow"); err != nil {
		return err
	}
	f.Shadow = v
	return nil
}

func (f *Fake) Eval(js string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Evals = append(f.Evals, js)
	return f.fail("Eval")
}

func (f *Fake) Reload() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reloads++
	return f.fail("Reload")
}

func (f *Fake) URL() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.CurrentURL, f.fail("URL")
}

// EvalCount returns the number of Eval calls so far.
func (f *Fake) EvalCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Evals)
}

// ReloadCount returns the number of Reload calls so far.
func (f *Fake) ReloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Reloads
}

// Reset clears the recorded evals and reloads.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Evals = nil
	f.Reloads = 0
}
