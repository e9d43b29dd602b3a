package vault

import (
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Store loads and saves vault files. The zero value is not usable; use
// NewStore.
type Store struct {
	fs     afero.Fs
	kdf    KDFParams
	logger zerolog.Logger
}

type Option func(*Store)

func WithFs(fs afero.Fs) Option {
	return func(s *Store) { s.fs = fs }
}

func WithKDFParams(p KDFParams) Option {
	return func(s *Store) { s.kdf = p }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		fs:     afero.NewOsFs(),
		kdf:    DefaultKDFParams(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Exists(path string) (bool, error) {
	ok, err := afero.Exists(s.fs, path)
	if err != nil {
		return false, newError("stat", path, ErrIO, err)
	}
	return ok, nil
}

// LoadOrInit opens the vault at path with password. When no file exists a
// fresh salt and key are generated and an empty collection is returned;
// nothing is written. Any failure on an existing file is returned as is.
// The caller owns the returned key and must Destroy it.
func (s *Store) LoadOrInit(password []byte, path string) (*Collection, *DerivedKey, error) {
	exists, err := s.Exists(path)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		key, err := DeriveKey(password, nil, s.kdf)
		if err != nil {
			return nil, nil, withPath(err, "init", path)
		}
		s.logger.Debug().Str("path", path).Msg("no vault file, initialized empty vault")
		return NewCollection(), key, nil
	}

	raw, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, nil, newError("read", path, ErrIO, err)
	}
	env, err := DecodeEnvelope(raw)
	if err != nil {
		return nil, nil, withPath(err, "load", path)
	}
	key, err := DeriveKey(password, env.Salt, s.kdf)
	if err != nil {
		return nil, nil, withPath(err, "load", path)
	}
	pt, err := Open(key, env.Nonce, env.Ciphertext)
	if err != nil {
		key.Destroy()
		return nil, nil, withPath(err, "load", path)
	}
	defer Zero(pt)

	c, err := ParseCollection(pt)
	if err != nil {
		key.Destroy()
		return nil, nil, withPath(err, "load", path)
	}
	s.logger.Debug().Str("path", path).Int("entries", c.Len()).Msg("vault loaded")
	return c, key, nil
}

// Save seals the whole collection under key with a new nonce and
// atomically replaces the file at path.
func (s *Store) Save(key *DerivedKey, c *Collection, path string) error {
	pt, err := c.MarshalBinary()
	if err != nil {
		return withPath(err, "save", path)
	}
	ct, nonce, err := Seal(key, pt)
	Zero(pt)
	if err != nil {
		return withPath(err, "save", path)
	}
	raw, err := EncodeEnvelope(Envelope{Salt: key.Salt(), Nonce: nonce, Ciphertext: ct})
	if err != nil {
		return withPath(err, "save", path)
	}
	if err := atomicWriteFile(s.fs, path, raw, 0600); err != nil {
		return newError("save", path, ErrIO, err)
	}
	s.logger.Debug().Str("path", path).Int("entries", c.Len()).Msg("vault saved")
	return nil
}
