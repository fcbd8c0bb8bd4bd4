// Package keys is the signature boundary of the system. It defines the
// pluggable Scheme capability (sign, verify, keygen over opaque byte strings)
// and provides two implementations: ML-DSA-65 (default, post-quantum) and
// secp256k1 ECDSA. It also takes care of reading and writing private keys
// from/to files.
package keys
