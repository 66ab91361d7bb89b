// addconsumer is the Go consumer of the add contract.  It links the C
// producer in cinterop through cgo and runs the contract's vectors against
// it.
//
// A signature mismatch between cinterop/add_abi.h and the producer is a
// build failure; a failing vector exits 1.
package main

import (
	"github.com/dropbox/abicheck/cinterop"
	"github.com/dropbox/abicheck/verifier"
)

func main() {
	verifier.Main(
		cinterop.AddSymbol,
		cinterop.AddVectors,
		verifier.WithContract(cinterop.AddSignature))
}
