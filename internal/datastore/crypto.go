package datastore

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"io"

	"github.com/brinkdb/snapctl/internal/errs"
	"github.com/klauspost/compress/zlib"
)

// nonce is fixed rather than random: every part of every dump written with
// a given key is sealed under this same nonce. That keeps part files
// decryptable without storing a nonce alongside each one, at the cost of
// reusing a nonce under one key, which weakens AES-GCM's guarantees.
var nonce = []byte("unique nonce")

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, errs.NewArchive("compressing part: " + err.Error())
	}
	if err := w.Close(); err != nil {
		return nil, errs.NewArchive("compressing part: " + err.Error())
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errs.NewArchive("decompressing part: " + err.Error())
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.NewArchive("decompressing part: " + err.Error())
	}
	return out, nil
}

// paddedKey right-pads key with 'x' to 32 bytes, or truncates it to 32,
// so any configured passphrase becomes a valid AES-256 key.
func paddedKey(key string) []byte {
	if len(key) >= 32 {
		return []byte(key[:32])
	}
	padded := make([]byte, 32)
	copy(padded, key)
	for i := len(key); i < 32; i++ {
		padded[i] = 'x'
	}
	return padded
}

func encrypt(data []byte, key string) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(nil, nonce, data, nil), nil
}

func decrypt(data []byte, key string) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	out, err := gcm.Open(nil, nonce, data, nil)
	if err != nil {
		return nil, errs.NewArchive("decrypting part: " + err.Error())
	}
	return out, nil
}

func newGCM(key string) (cipher.AEAD, error) {
	block, err := aes.NewCipher(paddedKey(key))
	if err != nil {
		return nil, errs.NewArchive("building cipher: " + err.Error())
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, len(nonce))
	if err != nil {
		return nil, errs.NewArchive("building cipher: " + err.Error())
	}
	return gcm, nil
}
