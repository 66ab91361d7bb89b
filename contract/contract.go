// Package contract defines the agreement shared by a producer and a consumer
// across a C-ABI boundary: a symbol name, an ordered list of fixed-width
// parameter types and a return type, together with the test vectors the
// consumer evaluates against it.
//
// A contract is described once, in a TOML file, and every declaration on
// either side of the boundary is generated from that description.
package contract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Prefix reserved for symbols emitted by abicheck itself.
const ReservedPrefix = "abicheck_"

// Number of hex characters of the signature digest kept in guard symbols.
const fingerprintLen = 16

type Parameter struct {
	Name string
	Type PrimitiveType
}

type Contract struct {
	Name   string
	Params []Parameter
	Return PrimitiveType
}

// Signature drops the parameter names, which are not part of the ABI.
func (c *Contract) Signature() Signature {
	return Signature{
		Name: c.Name,
		Params: lo.Map(c.Params, func(p Parameter, _ int) PrimitiveType {
			return p.Type
		}),
		Return: c.Return,
	}
}

// Signature is the ABI-visible part of a contract.  Two sides link
// correctly only when their signatures are Equal.
type Signature struct {
	Name   string
	Params []PrimitiveType
	Return PrimitiveType
}

// String returns the canonical form, e.g. add(int32_t,int32_t)->int32_t.
func (s Signature) String() string {
	params := lo.Map(s.Params, func(t PrimitiveType, _ int) string {
		return t.CType()
	})
	return fmt.Sprintf(
		"%s(%s)->%s",
		s.Name,
		strings.Join(params, ","),
		s.Return.CType())
}

// Equal requires the same name, the same parameter count and the same type
// at every position.  There is no widening and no reordering.
func (s Signature) Equal(other Signature) bool {
	return len(Compare(s, other)) == 0
}

func (s Signature) Fingerprint() string {
	sum := sha256.Sum256([]byte(s.String()))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}

// GuardSymbol names the function the producer artifact defines and every
// consumer references.  The name embeds the fingerprint, so a consumer
// generated from a different signature fails to link.
func (s Signature) GuardSymbol() string {
	return ReservedPrefix + "sig_" + s.Name + "_" + s.Fingerprint()
}

// Compare lists the differences between the producer's and the consumer's
// signature.  An empty result means the two are identical.
func Compare(producer, consumer Signature) []string {
	var diffs []string
	if producer.Name != consumer.Name {
		diffs = append(diffs, fmt.Sprintf(
			"symbol name: producer %q, consumer %q",
			producer.Name,
			consumer.Name))
	}
	if len(producer.Params) != len(consumer.Params) {
		diffs = append(diffs, fmt.Sprintf(
			"parameter count: producer %d, consumer %d",
			len(producer.Params),
			len(consumer.Params)))
	}
	for i := 0; i < len(producer.Params) && i < len(consumer.Params); i++ {
		if producer.Params[i] != consumer.Params[i] {
			diffs = append(diffs, fmt.Sprintf(
				"parameter %d: producer %s, consumer %s",
				i,
				producer.Params[i].CType(),
				consumer.Params[i].CType()))
		}
	}
	if producer.Return != consumer.Return {
		diffs = append(diffs, fmt.Sprintf(
			"return type: producer %s, consumer %s",
			producer.Return.CType(),
			consumer.Return.CType()))
	}
	return diffs
}
