package render

import (
	"fmt"
	"strings"
	"unicode"
)

// exprMarker prefixes element arguments that should become callables bound
// to the live board, e.g. "expr: sin(x) * A.Y()".
const exprMarker = "expr:"

// mathFunctions maps the mini-language's function names onto Math.*.
var mathFunctions = map[string]string{
	"abs":   "Math.abs",
	"sqrt":  "Math.sqrt",
	"sin":   "Math.sin",
	"cos":   "Math.cos",
	"tan":   "Math.tan",
	"asin":  "Math.asin",
	"acos":  "Math.acos",
	"atan":  "Math.atan",
	"atan2": "Math.atan2",
	"exp":   "Math.exp",
	"ln":    "Math.log",
	"log":   "Math.log10",
	"pow":   "Math.pow",
	"min":   "Math.min",
	"max":   "Math.max",
	"floor": "Math.floor",
	"ceil":  "Math.ceil",
	"round": "Math.round",
}

var mathConstants = map[string]string{
	"PI": "Math.PI",
	"E":  "Math.E",
}

// translateExpression turns a mini-language expression into a JS function
// literal over x. Only numbers, arithmetic operators, whitelisted math
// names and X()/Y() reads of already-constructed elements pass; everything
// else is rejected, so no caller-supplied text reaches the page verbatim.
func translateExpression(src string, refs map[string]string) (string, error) {
	body, err := translateBody(src, refs)
	if err != nil {
		return "", err
	}
	return "function (x) { return " + body + "; }", nil
}

func translateBody(src string, refs map[string]string) (string, error) {
	var out strings.Builder
	runes := []rune(src)
	depth := 0
	wroteToken := false

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case unicode.IsDigit(r) || r == '.':
			start := i
			dots := 0
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				if runes[i] == '.' {
					dots++
				}
				i++
			}
			num := string(runes[start:i])
			if dots > 1 || num == "." {
				return "", fmt.Errorf("invalid number %q in expression", num)
			}
			out.WriteString(num)
			wroteToken = true

		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			ident := string(runes[start:i])
			translated, consumed, err := translateIdentifier(ident, runes, i, refs)
			if err != nil {
				return "", err
			}
			i += consumed
			out.WriteString(translated)
			wroteToken = true

		case r == '(' || r == ')':
			if r == '(' {
				depth++
			} else {
				depth--
				if depth < 0 {
					return "", fmt.Errorf("unbalanced parentheses in expression")
				}
			}
			out.WriteRune(r)
			i++

		case r == '+' || r == '-' || r == '*' || r == '/' || r == '%' || r == ',':
			out.WriteRune(r)
			i++

		case r == '^':
			out.WriteString("**")
			i++

		default:
			return "", fmt.Errorf("character %q not allowed in expression", string(r))
		}
	}

	if depth != 0 {
		return "", fmt.Errorf("unbalanced parentheses in expression")
	}
	if !wroteToken {
		return "", fmt.Errorf("empty expression")
	}
	return out.String(), nil
}

// translateIdentifier resolves one identifier at position pos and reports
// how many extra runes it consumed (for element coordinate reads).
func translateIdentifier(ident string, runes []rune, pos int, refs map[string]string) (string, int, error) {
	// Element coordinate read: ident.X() or ident.Y().
	if pos < len(runes) && runes[pos] == '.' {
		rest := string(runes[pos:])
		handle, ok := refs[ident]
		if !ok {
			return "", 0, fmt.Errorf("expression references unknown element %q", ident)
		}
		for _, method := range []string{"X()", "Y()"} {
			if strings.HasPrefix(rest, "."+method) {
				return handle + "." + method, len(method) + 1, nil
			}
		}
		return "", 0, fmt.Errorf("element %q only supports .X() and .Y() in expressions", ident)
	}

	if ident == "x" {
		return "x", 0, nil
	}
	if js, ok := mathConstants[ident]; ok {
		return js, 0, nil
	}
	if js, ok := mathFunctions[ident]; ok {
		// Must be a call, not a bare name.
		j := pos
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j >= len(runes) || runes[j] != '(' {
			return "", 0, fmt.Errorf("function %q must be called in expression", ident)
		}
		return js, 0, nil
	}
	if _, ok := refs[ident]; ok {
		return "", 0, fmt.Errorf("element reference %q must be read via .X() or .Y()", ident)
	}
	return "", 0, fmt.Errorf("identifier %q not allowed in expression", ident)
}
