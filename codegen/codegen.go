// Package codegen renders every declaration on both sides of a C-ABI
// boundary from a single contract description, so the producer's export and
// the consumer's extern declaration can never be edited apart.
package codegen

import (
	"bytes"
	"embed"
	"fmt"
	"go/format"
	"go/token"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/samber/lo"

	"github.com/dropbox/abicheck/contract"
	"github.com/dropbox/abicheck/errors"
)

//go:embed templates/*.tmpl
var tplFS embed.FS

var tplCache = sync.Map{}

// Target selects which files Render produces.
type Target int

const (
	// <name>_abi.h, included by both sides.
	Header Target = 1 << iota
	// <name>_abi_guard.c, archived with the producer.
	Guard
	// <name>_verify.c, the C consumer program.
	CVerifier
	// <name>_binding.go, the cgo consumer binding.
	GoBinding

	Producer   = Header | Guard
	CConsumer  = Header | CVerifier
	GoConsumer = Header | Guard | GoBinding
	All        = Header | Guard | CVerifier | GoBinding
)

// ParseTargets maps a comma separated list such as "producer,go" to a
// Target set.
func ParseTargets(s string) (Target, error) {
	names := map[string]Target{
		"header":      Header,
		"guard":       Guard,
		"c-verifier":  CVerifier,
		"go-binding":  GoBinding,
		"producer":    Producer,
		"c-consumer":  CConsumer,
		"go-consumer": GoConsumer,
		"all":         All,
	}
	var targets Target
	for _, part := range strings.Split(s, ",") {
		t, ok := names[strings.TrimSpace(part)]
		if !ok {
			return 0, errors.Newf("unknown target %q", part)
		}
		targets |= t
	}
	return targets, nil
}

type Options struct {
	// Defaults to All.
	Targets Target

	// Package clause of the Go binding.  Defaults to the contract name.
	GoPackage string
}

type File struct {
	Name    string
	Content []byte
}

// Names are the file names generated for one contract.
type Names struct {
	Header    string
	Guard     string
	CVerifier string
	GoBinding string
}

func FileNames(contractName string) Names {
	return Names{
		Header:    contractName + "_abi.h",
		Guard:     contractName + "_abi_guard.c",
		CVerifier: contractName + "_verify.c",
		GoBinding: contractName + "_binding.go",
	}
}

type vectorData struct {
	Index     int
	Display   string
	CArgs     string
	CExpected string
	GoInputs  string
	Expected  int64
}

type templateData struct {
	Source       string
	Name         string
	Signature    string
	Guard        string
	Return       string
	CParams      string
	CFormat      string
	CCast        string
	GoPackage    string
	GoParamTypes string
	GoReturnType string
	CgoArgs      string
	Files        Names
	Vectors      []vectorData
}

// Render produces the selected files for suite.  The suite must already be
// valid.
func Render(suite *contract.Suite, opts Options) ([]File, error) {
	if err := suite.Validate(); err != nil {
		return nil, errors.Wrap(err, "refusing to generate code for invalid contract")
	}
	if opts.Targets == 0 {
		opts.Targets = All
	}
	data := newTemplateData(suite, opts)
	if opts.Targets&GoBinding != 0 && !token.IsIdentifier(data.GoPackage) {
		return nil, errors.NewKindf(
			errors.InvalidContract,
			"%q is not a valid Go package name",
			data.GoPackage)
	}

	steps := []struct {
		target   Target
		template string
		name     string
		goSource bool
	}{
		{Header, "header.h.tmpl", data.Files.Header, false},
		{Guard, "guard.c.tmpl", data.Files.Guard, false},
		{CVerifier, "verify.c.tmpl", data.Files.CVerifier, false},
		{GoBinding, "binding.go.tmpl", data.Files.GoBinding, true},
	}

	var files []File
	for _, step := range steps {
		if opts.Targets&step.target == 0 {
			continue
		}
		content, err := render(step.template, data)
		if err != nil {
			return nil, err
		}
		if step.goSource {
			content, err = format.Source(content)
			if err != nil {
				return nil, errors.Wrapf(err, "generated %s is not valid Go", step.name)
			}
		}
		files = append(files, File{Name: step.name, Content: content})
	}
	return files, nil
}

func newTemplateData(suite *contract.Suite, opts Options) *templateData {
	c := suite.Contract
	sig := c.Signature()

	source := filepath.Base(suite.Source)
	if suite.Source == "" {
		source = c.Name + ".toml"
	}
	goPackage := opts.GoPackage
	if goPackage == "" {
		goPackage = c.Name
	}

	cParams := "void"
	if len(c.Params) > 0 {
		cParams = strings.Join(
			lo.Map(c.Params, func(p contract.Parameter, _ int) string {
				return p.Type.CType() + " " + p.Name
			}),
			", ")
	}

	cFormat, cCast := "%lld", "long long"
	if !c.Return.Signed() {
		cFormat, cCast = "%llu", "unsigned long long"
	}

	vectors := lo.Map(suite.Vectors, func(v contract.TestVector, i int) vectorData {
		cArgs := make([]string, len(v.Inputs))
		goInputs := make([]string, len(v.Inputs))
		for j, in := range v.Inputs {
			cArgs[j] = cLiteral(c.Params[j].Type, in)
			goInputs[j] = fmt.Sprintf("%d", in)
		}
		return vectorData{
			Index:     i,
			Display:   v.String(),
			CArgs:     strings.Join(cArgs, ", "),
			CExpected: cLiteral(c.Return, v.Expected),
			GoInputs:  strings.Join(goInputs, ", "),
			Expected:  v.Expected,
		}
	})

	return &templateData{
		Source:    source,
		Name:      c.Name,
		Signature: sig.String(),
		Guard:     sig.GuardSymbol(),
		Return:    c.Return.CType(),
		CParams:   cParams,
		CFormat:   cFormat,
		CCast:     cCast,
		GoPackage: goPackage,
		GoParamTypes: strings.Join(
			lo.Map(sig.Params, func(t contract.PrimitiveType, _ int) string {
				return goConstant(t)
			}),
			", "),
		GoReturnType: goConstant(c.Return),
		CgoArgs: strings.Join(
			lo.Map(sig.Params, func(t contract.PrimitiveType, i int) string {
				return fmt.Sprintf("%s(args[%d])", t.CgoType(), i)
			}),
			", "),
		Files:   FileNames(c.Name),
		Vectors: vectors,
	}
}

// cLiteral spells v as a constant of type t using the <stdint.h> macros.
func cLiteral(t contract.PrimitiveType, v int64) string {
	if t == contract.Int64 && v == math.MinInt64 {
		// -9223372036854775808 is not a valid integer constant in C.
		return "INT64_MIN"
	}
	return fmt.Sprintf("%s_C(%d)", strings.ToUpper(string(t)), v)
}

// goConstant names the contract package constant for t, e.g. contract.Uint8.
func goConstant(t contract.PrimitiveType) string {
	name := string(t)
	return "contract." + strings.ToUpper(name[:1]) + name[1:]
}

func render(name string, data *templateData) ([]byte, error) {
	t, err := lookup(name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, errors.Wrapf(err, "executing template %q", name)
	}
	return buf.Bytes(), nil
}

func lookup(name string) (*template.Template, error) {
	if cached, ok := tplCache.Load(name); ok {
		return cached.(*template.Template), nil
	}
	t, err := template.New(name).
		Funcs(sprig.TxtFuncMap()).
		ParseFS(tplFS, "templates/"+name)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing template %q", name)
	}
	tplCache.Store(name, t)
	return t, nil
}
