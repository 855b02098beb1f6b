// Package kelftool reads and writes KELF containers, the signed and encrypted executable format
// used by the PlayStation 2 and related systems.
//
// A KELF file starts with a fixed header followed by two wrapped DES keys and an encrypted table
// of content blocks (the bit table). Each block may be encrypted and/or signed. Signatures are
// DES based MACs chained together by a root signature, so that any modification of the header,
// the bit table or the signed blocks is detected without public key cryptography.
//
// All secrets come from a KeyProvider, usually loaded with the keystore package.
//
// This package comes with a CLI. You can install it like this:
//   go install github.com/connesc/kelftool/cmd/kelftool@latest
package kelftool
