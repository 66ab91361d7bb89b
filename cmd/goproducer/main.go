// goproducer is a Go implementation of the add contract exported over the C
// ABI.  Build it as a static archive and hand the archive to abicheck:
//
//	go build -buildmode=c-archive -o libgoadd.a ./cmd/goproducer
//	abicheck verify -c contracts/add.toml -p libgoadd.a
//
// The archive does not carry the contract guard; abicheck compiles the guard
// next to it.  Linking a Go archive usually needs ABICHECK_LDFLAGS="-lpthread".
package main

// #include <stdint.h>
import "C"

//export add
func add(a, b C.int32_t) C.int32_t {
	return a + b
}

// Required by -buildmode=c-archive.
func main() {}
