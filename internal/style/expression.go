package style

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"
)

// Attributes is what an expression reads variables from.
type Attributes interface {
	Float(key string) (float64, bool)
}

// NumericExpression is an arithmetic formula over constants and [attribute]
// references, e.g. "[levels] * 3.2 + 1". Supported: + - * /, parentheses,
// unary minus, and the functions min, max, abs, round, floor, ceil.
// Missing or non-numeric attributes evaluate to 0, as does any non-finite
// result.
type NumericExpression struct {
	src     string
	program *vm.Program
	names   []string // attribute names indexed by placeholder number
}

var attrRef = regexp.MustCompile(`\[([^\[\]]+)\]`)

const placeholderPrefix = "attr_"

func unary(fn func(float64) float64) func(...any) (any, error) {
	return func(args ...any) (any, error) {
		return fn(toFloat(args[0])), nil
	}
}

func binary(fn func(float64, float64) float64) func(...any) (any, error) {
	return func(args ...any) (any, error) {
		return fn(toFloat(args[0]), toFloat(args[1])), nil
	}
}

func toFloat(v any) float64 {
	switch v := v.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// functions replace the expr builtins so every call is float64 in and out.
var functions = []expr.Option{
	expr.DisableAllBuiltins(),
	expr.Function("min", binary(math.Min), new(func(float64, float64) float64)),
	expr.Function("max", binary(math.Max), new(func(float64, float64) float64)),
	expr.Function("abs", unary(math.Abs), new(func(float64) float64)),
	expr.Function("round", unary(math.Round), new(func(float64) float64)),
	expr.Function("floor", unary(math.Floor), new(func(float64) float64)),
	expr.Function("ceil", unary(math.Ceil), new(func(float64) float64)),
}

// ParseNumericExpression compiles src.
func ParseNumericExpression(src string) (*NumericExpression, error) {
	e := &NumericExpression{src: src}

	rewritten := attrRef.ReplaceAllStringFunc(src, func(m string) string {
		name := strings.TrimSpace(m[1 : len(m)-1])
		e.names = append(e.names, name)
		return placeholderPrefix + strconv.Itoa(len(e.names)-1)
	})

	opts := append([]expr.Option{expr.Env(e.env(nil)), expr.AsFloat64()}, functions...)
	program, err := expr.Compile(rewritten, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing expression %q", src)
	}
	e.program = program
	return e, nil
}

// MustParseNumericExpression is ParseNumericExpression for literals in code.
func MustParseNumericExpression(src string) *NumericExpression {
	e, err := ParseNumericExpression(src)
	if err != nil {
		panic(err)
	}
	return e
}

// Constant returns an expression that always yields v.
func Constant(v float64) *NumericExpression {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return MustParseNumericExpression(strconv.FormatFloat(v, 'f', -1, 64))
}

func (e *NumericExpression) String() string {
	if e == nil {
		return ""
	}
	return e.src
}

// Attributes returns the attribute names the expression reads.
func (e *NumericExpression) Attributes() []string {
	return e.names
}

// env binds every placeholder to its attribute value, 0 when absent.
func (e *NumericExpression) env(attrs Attributes) map[string]any {
	env := make(map[string]any, len(e.names))
	for i, name := range e.names {
		v := 0.0
		if attrs != nil {
			if f, ok := attrs.Float(name); ok {
				v = f
			}
		}
		env[placeholderPrefix+strconv.Itoa(i)] = v
	}
	return env
}

// Eval evaluates the expression. attrs may be nil.
func (e *NumericExpression) Eval(attrs Attributes) float64 {
	if e == nil || e.program == nil {
		return 0
	}
	out, err := expr.Run(e.program, e.env(attrs))
	if err != nil {
		return 0
	}
	v, ok := out.(float64)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// UnmarshalYAML accepts either a number or an expression string.
func (e *NumericExpression) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.Newf("line %d: expression must be a scalar", value.Line)
	}
	parsed, err := ParseNumericExpression(value.Value)
	if err != nil {
		return err
	}
	*e = *parsed
	return nil
}

// MarshalYAML writes the source text.
func (e *NumericExpression) MarshalYAML() (any, error) {
	return e.src, nil
}
