package codegen

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropbox/abicheck/contract"
	"github.com/dropbox/abicheck/errors"
)

func addSuite() *contract.Suite {
	return &contract.Suite{
		Version: 1,
		Source:  "contracts/add.toml",
		Contract: contract.Contract{
			Name: "add",
			Params: []contract.Parameter{
				{Name: "a", Type: contract.Int32},
				{Name: "b", Type: contract.Int32},
			},
			Return: contract.Int32,
		},
		Vectors: []contract.TestVector{
			{Inputs: []int64{2, 3}, Expected: 5},
			{Inputs: []int64{0, 3}, Expected: 3},
			{Inputs: []int64{0, 0}, Expected: 0},
		},
	}
}

func byName(t *testing.T, files []File) map[string]string {
	out := make(map[string]string, len(files))
	for _, f := range files {
		out[f.Name] = string(f.Content)
	}
	require.Len(t, out, len(files))
	return out
}

func TestRenderAll(t *testing.T) {
	files, err := Render(addSuite(), Options{GoPackage: "cinterop"})
	require.NoError(t, err)

	got := byName(t, files)
	require.Len(t, got, 4)

	header := got["add_abi.h"]
	assert.Contains(t, header, "/* Code generated by abicheck from add.toml. DO NOT EDIT. */")
	assert.Contains(t, header, "#ifndef ABICHECK_ADD_ABI_H")
	assert.Contains(t, header, "#include <stdint.h>")
	assert.Contains(t, header, "extern int32_t add(int32_t a, int32_t b);")
	assert.Contains(t, header, "extern void abicheck_sig_add_1bb4087ba1238567(void);")

	guard := got["add_abi_guard.c"]
	assert.Contains(t, guard, `#include "add_abi.h"`)
	assert.Contains(t, guard, "void abicheck_sig_add_1bb4087ba1238567(void) {}")

	verify := got["add_verify.c"]
	assert.Contains(t, verify, "abicheck_sig_add_1bb4087ba1238567();")
	assert.Contains(t, verify, `printf("Starting add verification...\n");`)
	assert.Contains(t, verify, "int32_t got = add(INT32_C(2), INT32_C(3));")
	assert.Contains(t, verify, "if (got != INT32_C(5)) {")
	assert.Contains(t, verify, "int32_t got = add(INT32_C(0), INT32_C(0));")
	assert.Contains(t, verify, `"add: vector 0 (2, 3) -> 5 failed: got %lld, expected %lld\n"`)
	assert.Contains(t, verify, "return 1;")
	assert.Contains(t, verify, `printf("Finished add verification successfully!\n");`)

	binding := got["add_binding.go"]
	assert.Contains(t, binding, "//go:build cgo")
	assert.Contains(t, binding, "package cinterop")
	assert.Contains(t, binding, "var AddSymbol addSymbol")
	assert.Contains(t, binding, "Params: []contract.PrimitiveType{contract.Int32, contract.Int32},")
	assert.Contains(t, binding, "{Inputs: []int64{0, 3}, Expected: 3},")
	assert.Contains(t, binding, "C.abicheck_sig_add_1bb4087ba1238567()")
	assert.Contains(t, binding, "return int64(C.add(C.int32_t(args[0]), C.int32_t(args[1])))")
}

func TestRenderVectorOrder(t *testing.T) {
	files, err := Render(addSuite(), Options{Targets: CVerifier})
	require.NoError(t, err)
	require.Len(t, files, 1)

	verify := string(files[0].Content)
	first := strings.Index(verify, "add(INT32_C(2), INT32_C(3))")
	second := strings.Index(verify, "add(INT32_C(0), INT32_C(3))")
	third := strings.Index(verify, "add(INT32_C(0), INT32_C(0))")
	require.True(t, first >= 0 && first < second && second < third)
}

func TestRenderTargets(t *testing.T) {
	cases := []struct {
		targets Target
		names   []string
	}{
		{Producer, []string{"add_abi.h", "add_abi_guard.c"}},
		{CConsumer, []string{"add_abi.h", "add_verify.c"}},
		{GoConsumer, []string{"add_abi.h", "add_abi_guard.c", "add_binding.go"}},
		{0, []string{"add_abi.h", "add_abi_guard.c", "add_verify.c", "add_binding.go"}},
	}
	for _, tc := range cases {
		files, err := Render(addSuite(), Options{Targets: tc.targets})
		require.NoError(t, err)
		names := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, f.Name)
		}
		assert.Equal(t, tc.names, names)
	}
}

func TestRenderDefaultPackage(t *testing.T) {
	files, err := Render(addSuite(), Options{Targets: GoBinding})
	require.NoError(t, err)
	assert.Contains(t, string(files[0].Content), "package add\n")
}

func TestRenderNullaryUnsigned(t *testing.T) {
	suite := &contract.Suite{
		Version: 1,
		Contract: contract.Contract{
			Name:   "lucky_number",
			Return: contract.Uint64,
		},
		Vectors: []contract.TestVector{{Inputs: []int64{}, Expected: 7}},
	}
	files, err := Render(suite, Options{GoPackage: "lucky"})
	require.NoError(t, err)
	got := byName(t, files)

	assert.Contains(t, got["lucky_number_abi.h"], "/* Code generated by abicheck from lucky_number.toml. DO NOT EDIT. */")
	assert.Contains(t, got["lucky_number_abi.h"], "extern uint64_t lucky_number(void);")
	assert.Contains(t, got["lucky_number_verify.c"], "uint64_t got = lucky_number();")
	assert.Contains(t, got["lucky_number_verify.c"], "if (got != UINT64_C(7)) {")
	assert.Contains(t, got["lucky_number_verify.c"], "got %llu, expected %llu")
	assert.Contains(t, got["lucky_number_verify.c"], "(unsigned long long)got")

	binding := got["lucky_number_binding.go"]
	assert.Contains(t, binding, "var LuckyNumberSignature = contract.Signature{")
	assert.Contains(t, binding, "Params: []contract.PrimitiveType{},")
	assert.Contains(t, binding, "Return: contract.Uint64,")
	assert.Contains(t, binding, "{Inputs: []int64{}, Expected: 7},")
	assert.Contains(t, binding, "type luckyNumberSymbol struct{}")
	assert.Contains(t, binding, "return int64(C.lucky_number())")
}

func TestCLiteral(t *testing.T) {
	assert.Equal(t, "INT8_C(-128)", cLiteral(contract.Int8, -128))
	assert.Equal(t, "UINT16_C(65535)", cLiteral(contract.Uint16, 65535))
	assert.Equal(t, "INT64_C(9223372036854775807)", cLiteral(contract.Int64, math.MaxInt64))
	assert.Equal(t, "INT64_MIN", cLiteral(contract.Int64, math.MinInt64))
}

func TestRenderRejectsInvalidSuite(t *testing.T) {
	suite := addSuite()
	suite.Vectors = []contract.TestVector{{Inputs: []int64{1}, Expected: 1}}

	_, err := Render(suite, Options{})
	require.Error(t, err)
	assert.Equal(t, errors.InvalidContract, errors.KindOf(err))
}

func TestRenderRejectsUnusableNames(t *testing.T) {
	// Go keywords break the binding; stdio names clash inside the consumer.
	for _, name := range []string{"select", "range", "type", "puts", "remove"} {
		suite := addSuite()
		suite.Contract.Name = name
		_, err := Render(suite, Options{})
		require.Error(t, err, name)
		assert.Equal(t, errors.InvalidContract, errors.KindOf(err), name)
	}

	suite := addSuite()
	suite.Contract.Params[1].Name = "func"
	_, err := Render(suite, Options{})
	require.Error(t, err)
	assert.Equal(t, errors.InvalidContract, errors.KindOf(err))
}

func TestRenderValidatesGoPackage(t *testing.T) {
	_, err := Render(addSuite(), Options{GoPackage: "type"})
	require.Error(t, err)
	assert.Equal(t, errors.InvalidContract, errors.KindOf(err))

	_, err = Render(addSuite(), Options{GoPackage: "add-binding"})
	require.Error(t, err)
	assert.Equal(t, errors.InvalidContract, errors.KindOf(err))

	// No binding, no package clause.
	files, err := Render(addSuite(), Options{Targets: CConsumer, GoPackage: "type"})
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestParseTargets(t *testing.T) {
	targets, err := ParseTargets("producer, go-binding")
	require.NoError(t, err)
	assert.Equal(t, Header|Guard|GoBinding, targets)

	targets, err = ParseTargets("all")
	require.NoError(t, err)
	assert.Equal(t, All, targets)

	_, err = ParseTargets("rust")
	require.Error(t, err)
}

func TestWriteAndCheck(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gen")
	files, err := Render(addSuite(), Options{Targets: Producer})
	require.NoError(t, err)

	// Nothing written yet.
	err = Check(dir, files)
	require.Error(t, err)
	assert.Equal(t, errors.InvalidContract, errors.KindOf(err))
	assert.Contains(t, errors.GetMessage(err), "missing "+filepath.Join(dir, "add_abi.h"))

	require.NoError(t, Write(dir, files))
	require.NoError(t, Check(dir, files))

	for _, f := range files {
		diff, err := Diff(dir, f)
		require.NoError(t, err)
		assert.Empty(t, diff)
	}
}

func TestCheckReportsDrift(t *testing.T) {
	dir := t.TempDir()
	files, err := Render(addSuite(), Options{Targets: Header})
	require.NoError(t, err)
	require.NoError(t, Write(dir, files))

	// Someone widened the second parameter by hand.
	path := filepath.Join(dir, "add_abi.h")
	edited := []byte(strings.Replace(
		string(files[0].Content),
		"int32_t b",
		"int64_t b",
		1))
	require.NoError(t, os.WriteFile(path, edited, 0644))

	err = Check(dir, files)
	require.Error(t, err)
	msg := errors.GetMessage(err)
	assert.Contains(t, msg, "generated files are out of date with the contract")
	assert.Contains(t, msg, "-extern int32_t add(int32_t a, int64_t b);")
	assert.Contains(t, msg, "+extern int32_t add(int32_t a, int32_t b);")
}
