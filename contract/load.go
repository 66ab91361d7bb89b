package contract

import (
	stderrors "errors"
	"fmt"
	"go/token"
	"os"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/dropbox/abicheck/errors"
)

// FormatVersion is the only contract file version understood.
const FormatVersion = 1

// On-disk layout.  Kept separate from the public types so the file format
// can carry validation rules.
type suiteFile struct {
	Version  int          `toml:"version" validate:"eq=1"`
	Contract contractFile `toml:"contract" validate:"required"`
	Vectors  []vectorFile `toml:"vectors" validate:"min=1,dive"`
}

type contractFile struct {
	Name    string      `toml:"name" validate:"required,c_identifier"`
	Returns string      `toml:"returns" validate:"required"`
	Params  []paramFile `toml:"params" validate:"unique=Name,dive"`
}

type paramFile struct {
	Name string `toml:"name" validate:"required,c_identifier"`
	Type string `toml:"type" validate:"required"`
}

type vectorFile struct {
	Inputs   []int64 `toml:"inputs"`
	Expected *int64  `toml:"expected" validate:"required"`
}

var cKeywords = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true,
	"else": true, "enum": true, "extern": true, "float": true, "for": true,
	"goto": true, "if": true, "inline": true, "int": true, "long": true,
	"register": true, "restrict": true, "return": true, "short": true,
	"signed": true, "sizeof": true, "static": true, "struct": true,
	"switch": true, "typedef": true, "union": true, "unsigned": true,
	"void": true, "volatile": true, "while": true, "main": true,
}

// Identifiers the generated consumer already declares through <stdio.h> and
// <stdint.h>.
var consumerReserved = map[string]bool{
	"clearerr": true, "fclose": true, "feof": true, "ferror": true,
	"fflush": true, "fgetc": true, "fgetpos": true, "fgets": true,
	"fopen": true, "fprintf": true, "fputc": true, "fputs": true,
	"fread": true, "freopen": true, "fscanf": true, "fseek": true,
	"fsetpos": true, "ftell": true, "fwrite": true, "getc": true,
	"getchar": true, "gets": true, "perror": true, "printf": true,
	"putc": true, "putchar": true, "puts": true, "remove": true,
	"rename": true, "rewind": true, "scanf": true, "setbuf": true,
	"setvbuf": true, "snprintf": true, "sprintf": true, "sscanf": true,
	"tmpfile": true, "tmpnam": true, "ungetc": true, "vfprintf": true,
	"vfscanf": true, "vprintf": true, "vscanf": true, "vsnprintf": true,
	"vsprintf": true, "vsscanf": true,
	"stdin": true, "stdout": true, "stderr": true,
	"FILE": true, "EOF": true, "NULL": true, "BUFSIZ": true,
	"size_t": true, "fpos_t": true,
	"int8_t": true, "int16_t": true, "int32_t": true, "int64_t": true,
	"uint8_t": true, "uint16_t": true, "uint32_t": true, "uint64_t": true,
	"intmax_t": true, "uintmax_t": true, "intptr_t": true, "uintptr_t": true,
}

// IsCIdentifier reports whether name can be used verbatim in every generated
// source: it must be a C identifier that is neither a C nor a Go keyword,
// must not be declared by the headers the consumer includes, and must not
// collide with abicheck's own symbols.
func IsCIdentifier(name string) bool {
	if name == "" ||
		cKeywords[name] ||
		token.IsKeyword(name) ||
		consumerReserved[name] ||
		strings.HasPrefix(name, ReservedPrefix) {

		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("c_identifier", func(fl validator.FieldLevel) bool {
		return IsCIdentifier(fl.Field().String())
	})
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load reads and validates a contract file.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapKindf(
			err,
			errors.InvalidContract,
			"cannot read contract %s",
			path)
	}
	return Parse(data, path)
}

// Parse decodes and validates a contract description.  source names the
// description in error messages.
func Parse(data []byte, source string) (*Suite, error) {
	var file suiteFile
	md, err := toml.Decode(string(data), &file)
	if err != nil {
		var parseErr toml.ParseError
		if stderrors.As(err, &parseErr) {
			return nil, errors.NewKindf(
				errors.InvalidContract,
				"%s:%d:%d: %s",
				source,
				parseErr.Position.Line,
				parseErr.Position.Col,
				parseErr.Message)
		}
		return nil, errors.WrapKindf(
			err,
			errors.InvalidContract,
			"%s: cannot decode contract",
			source)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := lo.Map(undecoded, func(k toml.Key, _ int) string {
			return k.String()
		})
		return nil, errors.NewKindf(
			errors.InvalidContract,
			"%s: unknown fields: %s",
			source,
			strings.Join(keys, ", "))
	}

	if err := validate.Struct(&file); err != nil {
		return nil, validationError(source, err)
	}

	suite, err := file.toSuite(source)
	if err != nil {
		return nil, err
	}
	if err := suite.Validate(); err != nil {
		return nil, errors.Wrapf(err, "%s: invalid contract", source)
	}
	return suite, nil
}

func (f *suiteFile) toSuite(source string) (*Suite, error) {
	ret, err := ParsePrimitiveType(f.Contract.Returns)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: contract.returns", source)
	}

	params := make([]Parameter, 0, len(f.Contract.Params))
	for i, p := range f.Contract.Params {
		t, err := ParsePrimitiveType(p.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: contract.params[%d]", source, i)
		}
		params = append(params, Parameter{Name: p.Name, Type: t})
	}

	vectors := lo.Map(f.Vectors, func(v vectorFile, _ int) TestVector {
		inputs := v.Inputs
		if inputs == nil {
			inputs = []int64{}
		}
		return TestVector{Inputs: inputs, Expected: *v.Expected}
	})

	return &Suite{
		Version: f.Version,
		Source:  source,
		Contract: Contract{
			Name:   f.Contract.Name,
			Params: params,
			Return: ret,
		},
		Vectors: vectors,
	}, nil
}

func validationError(source string, err error) error {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.WrapKindf(err, errors.InvalidContract, "%s: invalid contract", source)
	}
	msgs := lo.Map(fieldErrs, func(fe validator.FieldError, _ int) string {
		if fe.Param() != "" {
			return fmt.Sprintf("%s fails %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s fails %s", fe.Namespace(), fe.Tag())
	})
	return errors.NewKindf(
		errors.InvalidContract,
		"%s: %s",
		source,
		strings.Join(msgs, "; "))
}
