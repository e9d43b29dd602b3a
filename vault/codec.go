package vault

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// MarshalBinary serializes the collection. Names are emitted in sorted
// order, so equal collections produce identical bytes.
func (c *Collection) MarshalBinary() ([]byte, error) {
	out := Collection{Entries: c.Entries}
	if out.Entries == nil {
		out.Entries = map[string]Record{}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, newError("serialize", "", ErrFormat, err)
	}
	return b, nil
}

// ParseCollection is the inverse of MarshalBinary.
func ParseCollection(b []byte) (*Collection, error) {
	var c Collection
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, newError("parse", "", ErrFormat, err)
	}
	if c.Entries == nil {
		c.Entries = map[string]Record{}
	}
	return &c, nil
}

// EncodeEnvelope renders e as the persisted JSON document.
func EncodeEnvelope(e Envelope) ([]byte, error) {
	if len(e.Salt) != SaltLen {
		return nil, newError("encode envelope", "", ErrLength, errors.Errorf("salt is %d bytes, want %d", len(e.Salt), SaltLen))
	}
	if len(e.Nonce) != NonceLen {
		return nil, newError("encode envelope", "", ErrLength, errors.Errorf("nonce is %d bytes, want %d", len(e.Nonce), NonceLen))
	}
	salt := base64.StdEncoding.EncodeToString(e.Salt)
	nonce := base64.StdEncoding.EncodeToString(e.Nonce)
	ct := base64.StdEncoding.EncodeToString(e.Ciphertext)
	b, err := json.MarshalIndent(envelopeFile{Salt: &salt, Nonce: &nonce, Ciphertext: &ct}, "", "  ")
	if err != nil {
		return nil, newError("encode envelope", "", ErrFormat, err)
	}
	return b, nil
}

// DecodeEnvelope parses the persisted document. Unknown or missing fields
// are rejected, as are salts and nonces of the wrong size.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var (
		f   envelopeFile
		env Envelope
	)
	if err := decodeEnvelopeFields(raw, &f); err != nil {
		return env, newError("decode envelope", "", ErrFormat, err)
	}

	fields := []struct {
		name string
		src  *string
		dst  *[]byte
	}{
		{"kdf_salt_b64", f.Salt, &env.Salt},
		{"nonce_b64", f.Nonce, &env.Nonce},
		{"ciphertext_b64", f.Ciphertext, &env.Ciphertext},
	}
	for _, fd := range fields {
		if fd.src == nil {
			return Envelope{}, newError("decode envelope", "", ErrFormat, errors.Errorf("missing field %q", fd.name))
		}
		b, err := base64.StdEncoding.Strict().DecodeString(*fd.src)
		if err != nil {
			return Envelope{}, newError("decode envelope", "", ErrEncoding, errors.Wrap(err, fd.name))
		}
		*fd.dst = b
	}

	if len(env.Salt) != SaltLen {
		return Envelope{}, newError("decode envelope", "", ErrLength, errors.Errorf("salt is %d bytes, want %d", len(env.Salt), SaltLen))
	}
	if len(env.Nonce) != NonceLen {
		return Envelope{}, newError("decode envelope", "", ErrLength, errors.Errorf("nonce is %d bytes, want %d", len(env.Nonce), NonceLen))
	}
	return env, nil
}

// decodeEnvelopeFields walks the top-level object token by token. Keys
// must match exactly and appear at most once; encoding/json alone would
// fold case and let a later duplicate win.
func decodeEnvelopeFields(raw []byte, f *envelopeFile) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return errors.New("envelope is not a JSON object")
	}

	slots := map[string]**string{
		"kdf_salt_b64":   &f.Salt,
		"nonce_b64":      &f.Nonce,
		"ciphertext_b64": &f.Ciphertext,
	}
	seen := make(map[string]bool, len(slots))
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		slot, ok := slots[name]
		if !ok {
			return errors.Errorf("unknown field %q", name)
		}
		if seen[name] {
			return errors.Errorf("duplicate field %q", name)
		}
		seen[name] = true
		if err := dec.Decode(slot); err != nil {
			return errors.Wrap(err, name)
		}
	}

	if tok, err := dec.Token(); err != nil || tok != json.Delim('}') {
		return errors.New("unterminated envelope object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("trailing data after envelope")
	}
	return nil
}
