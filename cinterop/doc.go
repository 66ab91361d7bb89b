// Package cinterop holds the reference C-ABI boundary for the add contract.
//
// add.c is the producer: a plain C definition that includes the generated
// header, so the C compiler rejects it if it drifts from contracts/add.toml.
// The header, the guard and the Go binding are generated from the same
// contract; the binding declares the symbol without defining it and cgo
// resolves it at link time.  A consumer built against a different contract
// references a guard symbol nothing defines and fails to link.
//
// Building this package requires cgo.
package cinterop

//go:generate go run ../cmd/abicheck generate -c ../contracts/add.toml -o . --package cinterop --targets go-consumer
