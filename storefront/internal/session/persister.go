package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
)

// FilePersister keeps client state in a JSON document of named records;
// the session lives under StorageKey. Other records are preserved.
type FilePersister struct {
	mu   sync.Mutex
	path string
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

func (p *FilePersister) Load(_ context.Context) (model.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	doc, err := p.read()
	if err != nil {
		return model.Session{}, err
	}
	raw, ok := doc[StorageKey]
	if !ok {
		return model.Session{}, nil
	}
	var sess model.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return model.Session{}, errors.Wrapf(err, "decode %s", StorageKey)
	}
	return sess, nil
}

func (p *FilePersister) Save(_ context.Context, sess model.Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	doc, err := p.read()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	doc[StorageKey] = raw
	return p.write(doc)
}

func (p *FilePersister) Delete(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	doc, err := p.read()
	if err != nil {
		return err
	}
	if _, ok := doc[StorageKey]; !ok {
		return nil
	}
	delete(doc, StorageKey)
	return p.write(doc)
}

func (p *FilePersister) read() (map[string]json.RawMessage, error) {
	doc := make(map[string]json.RawMessage)
	b, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, errors.Wrapf(err, "decode %s", p.path)
	}
	return doc, nil
}

func (p *FilePersister) write(doc map[string]json.RawMessage) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(p.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(p.path), filepath.Base(p.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p.path)
}

// MemoryPersister keeps the session for the lifetime of the process.
type MemoryPersister struct {
	mu   sync.Mutex
	sess model.Session
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (p *MemoryPersister) Load(context.Context) (model.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sess, nil
}

func (p *MemoryPersister) Save(_ context.Context, s model.Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sess = s
	return nil
}

func (p *MemoryPersister) Delete(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sess = model.Session{}
	return nil
}
