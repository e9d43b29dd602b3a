package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	"github.com/awnumar/memguard"
	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
)


// DefaultKDFParams returns the pinned Argon2id parameters (v0x13, t=2,
// m=19 MiB, p=1). Changing them changes the key derived for every
// existing vault.
func DefaultKDFParams() KDFParams { return KDFParams{Time: 2, Memory: 19 * 1024, Threads: 1} }

func (p KDFParams) validate() error {
	switch {
	case p.Time < 1:
		return errors.New("argon2: time cost must be at least 1")
	case p.Threads < 1:
		return errors.New("argon2: parallelism must be at least 1")
	case p.Memory < 8*uint32(p.Threads):
		return errors.Errorf("argon2: memory cost must be at least %d KiB", 8*uint32(p.Threads))
	}
	return nil
}

// DerivedKey is a 32-byte key held in locked memory together with the salt
// it was derived from. Destroy must be called once the key is no longer
// needed.
type DerivedKey struct {
	buf  *memguard.LockedBuffer
	salt [SaltLen]byte
}

func (k *DerivedKey) Salt() []byte {
	s := make([]byte, SaltLen)
	copy(s, k.salt[:])
	return s
}

// Destroy wipes the key. It is safe to call more than once and on nil.
func (k *DerivedKey) Destroy() {
	if k == nil || k.buf == nil {
		return
	}
	k.buf.Destroy()
}

func (k *DerivedKey) alive() bool {
	return k != nil && k.buf != nil && k.buf.IsAlive()
}

// DeriveKey stretches password with Argon2id. A nil salt means a fresh
// random salt is generated.
func DeriveKey(password, salt []byte, params KDFParams) (*DerivedKey, error) {
	if salt == nil {
		s, err := randBytes(SaltLen)
		if err != nil {
			return nil, newError("derive key", "", ErrKeyDerivation, err)
		}
		salt = s
	}
	if len(salt) != SaltLen {
		return nil, newError("derive key", "", ErrLength, errors.Errorf("salt is %d bytes, want %d", len(salt), SaltLen))
	}
	if err := params.validate(); err != nil {
		return nil, newError("derive key", "", ErrKeyDerivation, err)
	}

	raw := argon2.IDKey(password, salt, params.Time, params.Memory, params.Threads, KeyLen)
	// NewBufferFromBytes wipes raw once copied into locked memory.
	k := &DerivedKey{buf: memguard.NewBufferFromBytes(raw)}
	copy(k.salt[:], salt)
	return k, nil
}

func newGCM(op string, key *DerivedKey) (cipher.AEAD, error) {
	if !key.alive() {
		return nil, newError(op, "", ErrKeyDestroyed, nil)
	}
	block, err := aes.NewCipher(key.buf.Bytes())
	if err != nil {
		return nil, newError(op, "", ErrKeyDerivation, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, newError(op, "", ErrKeyDerivation, err)
	}
	return aead, nil
}

// Seal encrypts plaintext with AES-256-GCM under a freshly drawn nonce.
// The returned ciphertext carries the 16-byte tag.
func Seal(key *DerivedKey, plaintext []byte) (ciphertext, nonce []byte, err error) {
	aead, err := newGCM("encrypt", key)
	if err != nil {
		return nil, nil, err
	}
	nonce, err = randBytes(NonceLen)
	if err != nil {
		return nil, nil, newError("encrypt", "", ErrIO, err)
	}
	return aead.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// Open authenticates and decrypts ciphertext. Every authentication
// failure yields the same ErrDecryption.
func Open(key *DerivedKey, nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != NonceLen {
		return nil, newError("decrypt", "", ErrLength, errors.Errorf("nonce is %d bytes, want %d", len(nonce), NonceLen))
	}
	aead, err := newGCM("decrypt", key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, newError("decrypt", "", ErrDecryption, nil)
	}
	return pt, nil
}

func randBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Zero securely wipes a byte slice from memory.
func Zero(b []byte) {
	memguard.WipeBytes(b)
}
