// Package crypto seals document content under a password.
//
// A sealed envelope is a standard base64 string carrying everything needed to
// open it again except the password:
//
//	version(1) | time(4) | memory(4) | threads(1) | salt(16) | nonce(12) | ciphertext+tag
//
// The key is derived with argon2id and the payload is encrypted with
// AES-256-GCM, so a wrong password is detected by the authentication tag.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"
)

const (
	version    = 1
	saltLength = 16
	nonceSize  = 12
	keyLength  = 32
	tagSize    = 16
	headerSize = 1 + 4 + 4 + 1 + saltLength + nonceSize

	// Upper bounds accepted when opening, so a corrupt header cannot make the
	// KDF allocate unbounded memory.
	maxTime   = 16
	maxMemory = 1024 * 1024 // KiB
)

var (
	// ErrAuthentication means the envelope did not open with the given
	// password. A wrong password and tampered data are indistinguishable.
	ErrAuthentication = errors.New("crypto: message authentication failed")
	// ErrMalformed means the input is not a sealed envelope at all.
	ErrMalformed = errors.New("crypto: malformed envelope")
)

// Params are the argon2id cost parameters. Memory is in KiB.
type Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

// DefaultParams follow the OWASP argon2id recommendation.
var DefaultParams = Params{Time: 3, Memory: 64 * 1024, Threads: 2}

func (p Params) validate() error {
	if p.Time == 0 || p.Time > maxTime {
		return fmt.Errorf("invalid argon2 time %d", p.Time)
	}
	if p.Memory < 8*uint32(p.Threads) || p.Memory > maxMemory {
		return fmt.Errorf("invalid argon2 memory %d", p.Memory)
	}
	if p.Threads == 0 {
		return fmt.Errorf("invalid argon2 threads %d", p.Threads)
	}
	return nil
}

type Cipher struct {
	params Params
}

// New returns a Cipher sealing with p. Opening always uses the parameters
// recorded in the envelope.
func New(p Params) (*Cipher, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &Cipher{params: p}, nil
}

// Default returns a Cipher using DefaultParams.
func Default() *Cipher {
	return &Cipher{params: DefaultParams}
}

// Seal encrypts plaintext under password.
func (c *Cipher) Seal(plaintext, password string) (string, error) {
	buf := make([]byte, headerSize, headerSize+len(plaintext)+tagSize)
	buf[0] = version
	binary.BigEndian.PutUint32(buf[1:5], c.params.Time)
	binary.BigEndian.PutUint32(buf[5:9], c.params.Memory)
	buf[9] = c.params.Threads

	salt := buf[10 : 10+saltLength]
	nonce := buf[10+saltLength : headerSize]
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	gcm, err := newGCM(password, salt, c.params)
	if err != nil {
		return "", err
	}

	// The header is authenticated as additional data.
	header := append([]byte(nil), buf...)
	out := gcm.Seal(buf, header[10+saltLength:], []byte(plaintext), header)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open decrypts a sealed envelope. It returns ErrMalformed for input that is
// not an envelope and ErrAuthentication when the password does not open it or
// the recovered bytes are not valid UTF-8.
func (c *Cipher) Open(sealed, password string) (string, error) {
	data, p, err := parse(sealed)
	if err != nil {
		return "", err
	}

	salt := data[10 : 10+saltLength]
	nonce := data[10+saltLength : headerSize]

	gcm, err := newGCM(password, salt, p)
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, nonce, data[headerSize:], data[:headerSize])
	if err != nil {
		return "", ErrAuthentication
	}
	if !utf8.Valid(plaintext) {
		return "", ErrAuthentication
	}
	return string(plaintext), nil
}

// IsSealed reports whether s is structurally a sealed envelope. It does not
// check that any password opens it.
func IsSealed(s string) bool {
	_, _, err := parse(s)
	return err == nil
}

func parse(sealed string) ([]byte, Params, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, Params{}, ErrMalformed
	}
	if len(data) < headerSize+tagSize || data[0] != version {
		return nil, Params{}, ErrMalformed
	}

	p := Params{
		Time:    binary.BigEndian.Uint32(data[1:5]),
		Memory:  binary.BigEndian.Uint32(data[5:9]),
		Threads: data[9],
	}
	if err := p.validate(); err != nil {
		return nil, Params{}, ErrMalformed
	}
	return data, p, nil
}

func newGCM(password string, salt []byte, p Params) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, keyLength)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
