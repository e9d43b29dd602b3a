package vault

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCollectionRoundTrip(t *testing.T) {
	cases := map[string]*Collection{
		"empty": NewCollection(),
		"optional fields absent": {Entries: map[string]Record{
			"bank": {Username: "alice", Password: "s3cret"},
		}},
		"full": {Entries: map[string]Record{
			"mail": {ID: "id-1", Username: "bob", Password: "pw", URL: strPtr("https://mail.example"), Notes: strPtr("")},
			"git":  {Username: "carol", Password: "x", Notes: strPtr("2fa on")},
		}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			b, err := c.MarshalBinary()
			require.NoError(t, err)
			got, err := ParseCollection(b)
			require.NoError(t, err)
			assert.Equal(t, c, got)
		})
	}
}

func TestCollectionNilEntriesSerializesEmpty(t *testing.T) {
	b, err := (&Collection{}).MarshalBinary()
	require.NoError(t, err)
	assert.JSONEq(t, `{"entries":{}}`, string(b))
}

func TestCollectionSerializationSortedByName(t *testing.T) {
	c := NewCollection()
	c.Put("zeta", Record{Username: "z", Password: "z"})
	c.Put("alpha", Record{Username: "a", Password: "a"})
	c.Put("mid", Record{Username: "m", Password: "m"})

	b, err := c.MarshalBinary()
	require.NoError(t, err)
	a, m, z := bytes.Index(b, []byte(`"alpha"`)), bytes.Index(b, []byte(`"mid"`)), bytes.Index(b, []byte(`"zeta"`))
	assert.True(t, a < m && m < z, "names not ordered: %s", b)

	again, err := c.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, b, again)
}

func TestParseCollectionOriginalPayload(t *testing.T) {
	raw := `{"entries":{"github":{"username":"octo","password":"hunter2","url":"https://github.com","notes":null}}}`
	c, err := ParseCollection([]byte(raw))
	require.NoError(t, err)

	r, ok := c.Get("github")
	require.True(t, ok)
	assert.Equal(t, "octo", r.Username)
	assert.Equal(t, "https://github.com", *r.URL)
	assert.Nil(t, r.Notes)
}

func TestParseCollectionMalformed(t *testing.T) {
	_, err := ParseCollection([]byte("not json"))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestCollectionPutOverwrites(t *testing.T) {
	c := NewCollection()
	assert.False(t, c.Put("site", Record{Username: "old", Password: "1"}))
	assert.True(t, c.Put("site", Record{Username: "new", Password: "2"}))

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, []string{"site"}, c.Names())
	r, _ := c.Get("site")
	assert.Equal(t, "new", r.Username)
}

func TestCollectionRemove(t *testing.T) {
	c := NewCollection()
	c.Put("a", Record{Username: "u", Password: "p"})

	assert.False(t, c.Remove("missing"))
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Remove("a"))
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Names())
}

func testEnvelope() Envelope {
	return Envelope{
		Salt:       bytes.Repeat([]byte{0xAA}, SaltLen),
		Nonce:      bytes.Repeat([]byte{0xBB}, NonceLen),
		Ciphertext: []byte("ciphertext-with-tag"),
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env := testEnvelope()
	raw, err := EncodeEnvelope(env)
	require.NoError(t, err)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Len(t, fields, 3)
	assert.Equal(t, base64.StdEncoding.EncodeToString(env.Salt), fields["kdf_salt_b64"])
	assert.Equal(t, base64.StdEncoding.EncodeToString(env.Nonce), fields["nonce_b64"])
	assert.Equal(t, base64.StdEncoding.EncodeToString(env.Ciphertext), fields["ciphertext_b64"])

	got, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, env, got)
}

func TestEncodeEnvelopeRejectsBadLengths(t *testing.T) {
	env := testEnvelope()
	env.Salt = env.Salt[:4]
	_, err := EncodeEnvelope(env)
	assert.ErrorIs(t, err, ErrLength)

	env = testEnvelope()
	env.Nonce = append(env.Nonce, 0)
	_, err = EncodeEnvelope(env)
	assert.ErrorIs(t, err, ErrLength)
}

func TestDecodeEnvelopeErrors(t *testing.T) {
	salt := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, SaltLen))
	nonce := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{2}, NonceLen))
	ct := base64.StdEncoding.EncodeToString([]byte("ct"))

	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"not json", `kdf_salt_b64=`, ErrFormat},
		{"array", `[]`, ErrFormat},
		{"unknown field", `{"kdf_salt_b64":"` + salt + `","nonce_b64":"` + nonce + `","ciphertext_b64":"` + ct + `","version":1}`, ErrFormat},
		{"missing ciphertext", `{"kdf_salt_b64":"` + salt + `","nonce_b64":"` + nonce + `"}`, ErrFormat},
		{"null nonce", `{"kdf_salt_b64":"` + salt + `","nonce_b64":null,"ciphertext_b64":"` + ct + `"}`, ErrFormat},
		{"case-folded keys", `{"KDF_SALT_B64":"` + salt + `","Nonce_B64":"` + nonce + `","ciphertext_b64":"` + ct + `"}`, ErrFormat},
		{"duplicate salt", `{"kdf_salt_b64":"***","kdf_salt_b64":"` + salt + `","nonce_b64":"` + nonce + `","ciphertext_b64":"` + ct + `"}`, ErrFormat},
		{"duplicate valid ciphertext", `{"kdf_salt_b64":"` + salt + `","nonce_b64":"` + nonce + `","ciphertext_b64":"` + ct + `","ciphertext_b64":"` + ct + `"}`, ErrFormat},
		{"numeric field", `{"kdf_salt_b64":1,"nonce_b64":"` + nonce + `","ciphertext_b64":"` + ct + `"}`, ErrFormat},
		{"unterminated", `{"kdf_salt_b64":"` + salt + `"`, ErrFormat},
		{"trailing data", `{"kdf_salt_b64":"` + salt + `","nonce_b64":"` + nonce + `","ciphertext_b64":"` + ct + `"} {}`, ErrFormat},
		{"bad base64", `{"kdf_salt_b64":"***","nonce_b64":"` + nonce + `","ciphertext_b64":"` + ct + `"}`, ErrEncoding},
		{"short salt", `{"kdf_salt_b64":"AAAA","nonce_b64":"` + nonce + `","ciphertext_b64":"` + ct + `"}`, ErrLength},
		{"long nonce", `{"kdf_salt_b64":"` + salt + `","nonce_b64":"` + salt + `","ciphertext_b64":"` + ct + `"}`, ErrLength},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeEnvelope([]byte(tc.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDecodeEnvelopeRejectsNonCanonicalBase64(t *testing.T) {
	env := testEnvelope()
	raw, err := EncodeEnvelope(env)
	require.NoError(t, err)

	// The salt encodes to 22 chars plus "==". Flipping the low bit of the
	// last data char only touches padding bits.
	enc := base64.StdEncoding.EncodeToString(env.Salt)
	mut := []byte(enc)
	mut[21] ^= 0x01
	raw = bytes.Replace(raw, []byte(enc), mut, 1)

	_, err = DecodeEnvelope(raw)
	assert.ErrorIs(t, err, ErrEncoding)
}
