package vault

import "sort"

const (
	KeyLen   = 32
	SaltLen  = 16
	NonceLen = 12
	TagLen   = 16
)

// Record is a single named credential. URL and Notes are optional and
// serialize as null when absent.
type Record struct {
	ID       string  `json:"id,omitempty"`
	Username string  `json:"username" validate:"required"`
	Password string  `json:"password" validate:"required"`
	URL      *string `json:"url"`
	Notes    *string `json:"notes"`
}

// Collection maps unique record names to records.
type Collection struct {
	Entries map[string]Record `json:"entries"`
}

func NewCollection() *Collection {
	return &Collection{Entries: map[string]Record{}}
}

// Put inserts r under name, overwriting any existing record. It reports
// whether a record was replaced.
func (c *Collection) Put(name string, r Record) bool {
	if c.Entries == nil {
		c.Entries = map[string]Record{}
	}
	_, replaced := c.Entries[name]
	c.Entries[name] = r
	return replaced
}

func (c *Collection) Get(name string) (Record, bool) {
	r, ok := c.Entries[name]
	return r, ok
}

// Remove deletes name and reports whether it was present.
func (c *Collection) Remove(name string) bool {
	if _, ok := c.Entries[name]; !ok {
		return false
	}
	delete(c.Entries, name)
	return true
}

// Names returns record names in ascending order.
func (c *Collection) Names() []string {
	names := make([]string, 0, len(c.Entries))
	for n := range c.Entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (c *Collection) Len() int { return len(c.Entries) }

// KDFParams are the Argon2id work parameters. Memory is in KiB.
type KDFParams struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

// Envelope is the persisted unit: everything needed to reopen the vault
// given the master password.
type Envelope struct {
	Salt       []byte
	Nonce      []byte
	Ciphertext []byte
}

type envelopeFile struct {
	Salt       *string `json:"kdf_salt_b64"`
	Nonce      *string `json:"nonce_b64"`
	Ciphertext *string `json:"ciphertext_b64"`
}
