package frame

import "hash/adler32"

// adler32Checksum computes the Adler-32 checksum of data using the stdlib
// implementation, which already matches the wire-mandated algorithm
// byte-for-byte (see DESIGN.md's stdlib justification for this package).
func adler32Checksum(data []byte) uint32 {
	return adler32.Checksum(data)
}
