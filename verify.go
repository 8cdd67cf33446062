package spk

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"fmt"
)

// keyedDigestSecret is the shared key embedded in the client; file keyed
// digests are HMAC-SHA1 of the file content under this key.
var keyedDigestSecret = []byte{
	0x8e, 0x1f, 0x55, 0x43, 0xc2, 0xf5, 0x4a, 0x11,
	0x67, 0x3a, 0x28, 0x2a, 0x2f, 0x87, 0xc0, 0x06,
}

// Verify reads the stored bytes of f and checks them against the entry's
// keyed digest and content digest. It returns ErrDigestMismatch when
// either digest disagrees with the bytes.
func (a *Archive) Verify(f FileEntry) error {
	data, err := a.ReadFile(f)
	if err != nil {
		return err
	}

	mac := hmac.New(sha1.New, keyedDigestSecret)
	mac.Write(data)
	if !hmac.Equal(mac.Sum(nil), f.HMAC[:]) {
		return fmt.Errorf("%w: keyed digest for %s", ErrDigestMismatch, f.Name)
	}

	if md5.Sum(data) != f.MD5 {
		return fmt.Errorf("%w: content digest for %s", ErrDigestMismatch, f.Name)
	}
	return nil
}
