// Package store persists sheets by name on top of a string key-value bucket,
// sealing the content of password protected documents.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/nzaccagnino/go-sheets/internal/crypto"
	"github.com/nzaccagnino/go-sheets/internal/logging"
)

// KV is the durable backend. db.Bucket satisfies it.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Cipher seals and opens content under a password. crypto.Cipher satisfies it.
type Cipher interface {
	Seal(plaintext, password string) (string, error)
	Open(sealed, password string) (string, error)
}

type Store struct {
	kv     KV
	cipher Cipher
	log    logging.Logger
	now    func() time.Time
	locks  keyedMutex
}

type Option func(*Store)

func WithCipher(c Cipher) Option {
	return func(s *Store) { s.cipher = c }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		cipher: crypto.Default(),
		log:    logging.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type saveOptions struct {
	password string
}

type SaveOption func(*saveOptions)

// WithPassword seals the content under password and marks the record
// protected, whatever doc.PasswordProtected says.
func WithPassword(password string) SaveOption {
	return func(o *saveOptions) { o.password = password }
}

// Save writes doc under doc.Name, replacing any previous record. The
// existing Created timestamp is kept and Modified is set to now.
//
// Without WithPassword a protected doc must already carry sealed content.
func (s *Store) Save(ctx context.Context, doc Document, opts ...SaveOption) error {
	if doc.Name == "" || IsReserved(doc.Name) {
		return opError("save", doc.Name, ErrInvalidName)
	}

	var o saveOptions
	for _, opt := range opts {
		opt(&o)
	}

	unlock := s.locks.lock(doc.Name)
	defer unlock()

	return s.saveLocked(ctx, "save", doc, o.password)
}

// Create saves a new document under a validated name and fails with
// ErrAlreadyExists rather than overwrite.
func (s *Store) Create(ctx context.Context, doc Document, opts ...SaveOption) (*Document, error) {
	name, err := ValidateName(doc.Name)
	if err != nil {
		return nil, err
	}
	doc.Name = name

	var o saveOptions
	for _, opt := range opts {
		opt(&o)
	}

	unlock := s.locks.lock(name)
	defer unlock()

	_, found, err := s.kv.Get(ctx, name)
	if err != nil {
		return nil, opError("create", name, persistence(err))
	}
	if found {
		return nil, opError("create", name, ErrAlreadyExists)
	}

	if err := s.saveLocked(ctx, "create", doc, o.password); err != nil {
		return nil, err
	}
	return s.read(ctx, "create", name)
}

// Replace overwrites an existing document, failing with ErrNotFound when
// there is none. A protected record is only replaced when password opens
// it. A non-empty password seals the new content. The check and the write
// happen under the key lock.
func (s *Store) Replace(ctx context.Context, doc Document, password string) error {
	if doc.Name == "" || IsReserved(doc.Name) {
		return opError("replace", doc.Name, ErrInvalidName)
	}

	unlock := s.locks.lock(doc.Name)
	defer unlock()

	existing, err := s.read(ctx, "replace", doc.Name)
	if err != nil {
		return err
	}
	if err := s.open(existing, password); err != nil {
		return opError("replace", doc.Name, err)
	}
	doc.PasswordProtected = false
	return s.saveLocked(ctx, "replace", doc, password)
}

func (s *Store) saveLocked(ctx context.Context, op string, doc Document, password string) error {
	existing, err := s.read(ctx, op, doc.Name)
	switch {
	case err == nil, errors.Is(err, ErrNotFound):
	case errors.Is(err, ErrInvalidRecord):
		// Overwritten below.
		s.log.Warn(ctx, "replacing unreadable record", "name", doc.Name, "error", err)
		existing = nil
	default:
		return err
	}

	now := s.now()
	if password != "" {
		sealed, err := s.cipher.Seal(doc.Content, password)
		if err != nil {
			return opError(op, doc.Name, err)
		}
		doc.Content = sealed
		doc.PasswordProtected = true
	} else if doc.PasswordProtected && !crypto.IsSealed(doc.Content) {
		return opError(op, doc.Name, ErrInvalidRecord)
	}

	switch {
	case existing != nil && !existing.Created.IsZero():
		doc.Created = existing.Created
	case doc.Created.IsZero():
		doc.Created = now
	}
	doc.Modified = now

	if err := s.write(ctx, op, doc); err != nil {
		return err
	}
	s.log.Debug(ctx, "document saved", "name", doc.Name, "protected", doc.PasswordProtected)
	return nil
}

func (s *Store) write(ctx context.Context, op string, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return opError(op, doc.Name, err)
	}
	if err := s.kv.Set(ctx, doc.Name, string(data)); err != nil {
		return opError(op, doc.Name, persistence(err))
	}
	return nil
}

func (s *Store) read(ctx context.Context, op, name string) (*Document, error) {
	raw, found, err := s.kv.Get(ctx, name)
	if err != nil {
		return nil, opError(op, name, persistence(err))
	}
	if !found {
		return nil, opError(op, name, ErrNotFound)
	}

	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, opError(op, name, ErrInvalidRecord)
	}
	if doc.PasswordProtected && !crypto.IsSealed(doc.Content) {
		return nil, opError(op, name, ErrInvalidRecord)
	}
	doc.Name = name
	return &doc, nil
}

// Get returns the record as stored, sealed content included.
func (s *Store) Get(ctx context.Context, name string) (*Document, error) {
	return s.read(ctx, "get", name)
}

// GetDecrypted returns the document with its content opened. Unprotected
// documents are returned as stored and password is ignored.
func (s *Store) GetDecrypted(ctx context.Context, name, password string) (*Document, error) {
	doc, err := s.read(ctx, "get", name)
	if err != nil {
		return nil, err
	}
	if err := s.open(doc, password); err != nil {
		return nil, opError("get", name, err)
	}
	return doc, nil
}

func (s *Store) open(doc *Document, password string) error {
	if !doc.PasswordProtected {
		return nil
	}
	if password == "" {
		return ErrPasswordRequired
	}
	plain, err := s.cipher.Open(doc.Content, password)
	switch {
	case errors.Is(err, crypto.ErrMalformed):
		return ErrInvalidRecord
	case err != nil:
		return ErrInvalidPassword
	}
	doc.Content = plain
	return nil
}

// VerifyPassword reports whether password opens name. It is true for any
// existing unprotected document.
func (s *Store) VerifyPassword(ctx context.Context, name, password string) bool {
	_, err := s.GetDecrypted(ctx, name, password)
	return err == nil
}

func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	_, found, err := s.kv.Get(ctx, name)
	if err != nil {
		return false, opError("exists", name, persistence(err))
	}
	return found, nil
}

// ListAll maps every readable document name to its modified time. Records
// that do not decode are logged and left out.
func (s *Store) ListAll(ctx context.Context) (map[string]time.Time, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return nil, opError("list", "", persistence(err))
	}

	out := make(map[string]time.Time, len(keys))
	for _, k := range keys {
		doc, err := s.read(ctx, "list", k)
		if err != nil {
			if errors.Is(err, ErrPersistence) {
				return nil, err
			}
			s.log.Warn(ctx, "skipping unreadable document", "name", k, "error", err)
			continue
		}
		out[k] = doc.Modified
	}
	return out, nil
}

// Names returns document names ordered by modified time, newest first.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(all))
	for n := range all {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if all[names[i]].Equal(all[names[j]]) {
			return names[i] < names[j]
		}
		return all[names[i]].After(all[names[j]])
	})
	return names, nil
}

// Delete removes name. Removing an absent document succeeds.
func (s *Store) Delete(ctx context.Context, name string) error {
	unlock := s.locks.lock(name)
	defer unlock()

	if err := s.kv.Delete(ctx, name); err != nil {
		return opError("delete", name, persistence(err))
	}
	s.log.Debug(ctx, "document deleted", "name", name)
	return nil
}

// IsPasswordProtected is false for absent and unreadable documents.
func (s *Store) IsPasswordProtected(ctx context.Context, name string) bool {
	doc, err := s.read(ctx, "get", name)
	if err != nil {
		return false
	}
	return doc.PasswordProtected
}

// Protect seals the content of an unprotected document in place.
func (s *Store) Protect(ctx context.Context, name, password string) error {
	if password == "" {
		return opError("protect", name, ErrPasswordRequired)
	}

	unlock := s.locks.lock(name)
	defer unlock()

	doc, err := s.read(ctx, "protect", name)
	if err != nil {
		return err
	}
	if doc.PasswordProtected {
		return opError("protect", name, ErrAlreadyProtected)
	}

	sealed, err := s.cipher.Seal(doc.Content, password)
	if err != nil {
		return opError("protect", name, err)
	}
	doc.Content = sealed
	doc.PasswordProtected = true
	return s.write(ctx, "protect", *doc)
}

// RemoveProtection opens name with password and stores it back as
// plaintext in a single write. On any error the record is unchanged.
func (s *Store) RemoveProtection(ctx context.Context, name, password string) error {
	unlock := s.locks.lock(name)
	defer unlock()

	doc, err := s.read(ctx, "unprotect", name)
	if err != nil {
		return err
	}
	if !doc.PasswordProtected {
		return opError("unprotect", name, ErrNotProtected)
	}
	if err := s.open(doc, password); err != nil {
		return opError("unprotect", name, err)
	}
	doc.PasswordProtected = false
	return s.write(ctx, "unprotect", *doc)
}
