package sound

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// fakeSession records every call made against it.
type fakeSession struct {
	mu sync.Mutex

	calls    []string
	category SessionCategory
	port     OutputPort
	active   bool
	alerts   int

	failCategory SessionCategory
	failActive   bool
	failAlert    bool
}

func (s *fakeSession) SetCategory(category SessionCategory, mode SessionMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "category:"+string(category))
	if s.failCategory == category {
		return errors.New("category refused")
	}
	s.category = category
	return nil
}

func (s *fakeSession) OverrideOutputPort(port OutputPort) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "port:"+string(port))
	s.port = port
	return nil
}

func (s *fakeSession) SetActive(active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if active {
		s.calls = append(s.calls, "active")
	} else {
		s.calls = append(s.calls, "inactive")
	}
	if s.failActive && active {
		return errors.New("activation refused")
	}
	s.active = active
	return nil
}

func (s *fakeSession) PlayAlert() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "alert")
	if s.failAlert {
		return errors.New("no alert")
	}
	s.alerts++
	return nil
}

func (s *fakeSession) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// fakeBundle resolves any name in its set.
type fakeBundle struct {
	names map[string]bool
}

func newFakeBundle(names ...string) *fakeBundle {
	b := &fakeBundle{names: make(map[string]bool)}
	for _, n := range names {
		b.names[n] = true
	}
	return b
}

func allAssetsBundle() *fakeBundle {
	var names []string
	for _, c := range Categories() {
		names = append(names, c.DefaultAsset())
	}
	return newFakeBundle(names...)
}

func (b *fakeBundle) Resolve(ref string) (Asset, error) {
	if !b.names[ref] {
		return Asset{}, ErrAssetNotFound
	}
	return Asset{
		Key:  "fake:" + ref,
		Name: ref,
		Open: func() (io.ReadSeekCloser, error) {
			return nopSeekCloser{bytes.NewReader(nil)}, nil
		},
		Size: 0,
	}, nil
}

type nopSeekCloser struct{ *bytes.Reader }

func (nopSeekCloser) Close() error { return nil }

// fakeBackend hands out fakeResources and remembers them.
type fakeBackend struct {
	mu        sync.Mutex
	loaded    []*fakeResource
	failLoad  bool
	failStart bool
}

func (b *fakeBackend) Load(asset Asset) (Resource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failLoad {
		return nil, errors.New("corrupt file")
	}
	r := &fakeResource{asset: asset.Key, failPlay: b.failStart}
	b.loaded = append(b.loaded, r)
	return r, nil
}

func (b *fakeBackend) Loaded() []*fakeResource {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*fakeResource(nil), b.loaded...)
}

type fakeResource struct {
	mu       sync.Mutex
	asset    string
	loops    int
	prepared bool
	playing  bool
	done     bool
	released bool
	failPlay bool
}

func (r *fakeResource) SetLoops(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loops = n
}

func (r *fakeResource) Prepare() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prepared = true
	return nil
}

func (r *fakeResource) Play() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failPlay {
		return errors.New("device busy")
	}
	r.playing = true
	return nil
}

func (r *fakeResource) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = false
}

func (r *fakeResource) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = true
}

func (r *fakeResource) IsPlaying() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing
}

func (r *fakeResource) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *fakeResource) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = false
	r.done = true
}

func (r *fakeResource) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = false
	r.released = true
}

func (r *fakeResource) Released() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}

func (r *fakeResource) Loops() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loops
}
