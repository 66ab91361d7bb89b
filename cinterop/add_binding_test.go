//go:build cgo

package cinterop

import (
	"bytes"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropbox/abicheck/codegen"
	"github.com/dropbox/abicheck/contract"
	"github.com/dropbox/abicheck/verifier"
)

func TestAddSymbolPassesVectors(t *testing.T) {
	result, err := verifier.New(AddSymbol, verifier.WithContract(AddSignature)).
		RunAll(AddVectors)
	require.NoError(t, err)
	require.Equal(t, verifier.Passed, result.State)
	require.Equal(t, len(AddVectors), result.Evaluated)
}

func TestAddSymbolCallsAcrossBoundary(t *testing.T) {
	require.Equal(t, int64(5), AddSymbol.Call(2, 3))
	require.Equal(t, int64(-7), AddSymbol.Call(-10, 3))
	require.Equal(t, int64(0), AddSymbol.Call(0, 0))
}

func TestConsumerProgram(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := verifier.Run(&stdout, &stderr, AddSymbol, AddVectors)
	require.Equal(t, 0, code, stderr.String())
	require.Contains(t, stdout.String(), "Finished add verification successfully!")
}

// The checked-in header, guard and binding must be exactly what the contract
// renders today.
func TestGeneratedFilesAreCurrent(t *testing.T) {
	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok)
	dir := filepath.Dir(thisFile)

	suite, err := contract.Load(filepath.Join(dir, "..", "contracts", "add.toml"))
	require.NoError(t, err)
	require.True(t, suite.Contract.Signature().Equal(AddSignature))
	require.Equal(t, suite.Vectors, AddVectors)

	files, err := codegen.Render(suite, codegen.Options{
		Targets:   codegen.GoConsumer,
		GoPackage: "cinterop",
	})
	require.NoError(t, err)
	require.NoError(t, codegen.Check(dir, files))
}
