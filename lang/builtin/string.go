package builtin

import (
	"strings"

	"github.com/ajokela/lattice-sub005/lang/value"
)

var stringTable = newTable(map[string]Method{
	"len":         stringLen,
	"length":      stringLen,
	"split":       stringSplit,
	"trim":        stringTrim,
	"trim_start":  stringTrimStart,
	"trim_end":    stringTrimEnd,
	"to_upper":    stringToUpper,
	"to_lower":    stringToLower,
	"capitalize":  stringCapitalize,
	"title_case":  stringTitleCase,
	"snake_case":  stringSnakeCase,
	"camel_case":  stringCamelCase,
	"kebab_case":  stringKebabCase,
	"starts_with": stringStartsWith,
	"ends_with":   stringEndsWith,
	"replace":     stringReplace,
	"contains":    stringContains,
	"chars":       stringChars,
	"bytes":       stringBytes,
	"reverse":     stringReverse,
	"repeat":      stringRepeat,
	"pad_left":    stringPadLeft,
	"pad_right":   stringPadRight,
	"count":       stringCount,
	"is_empty":    stringIsEmpty,
	"index_of":    stringIndexOf,
	"substring":   stringSubstring,
})

func stringLen(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Int(int64(len([]rune(r.Str())))), nil
}

func stringSplit(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	sep := args[0].Str()
	var parts []string
	if sep == "" {
		for _, c := range r.Str() {
			parts = append(parts, string(c))
		}
	} else {
		parts = strings.Split(r.Str(), sep)
	}
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.String(p)
	}
	return value.Array(out), nil
}

func stringTrim(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.String(strings.TrimSpace(r.Str())), nil
}

func stringTrimStart(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.String(strings.TrimLeft(r.Str(), " \t\n\r")), nil
}

func stringTrimEnd(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.String(strings.TrimRight(r.Str(), " \t\n\r")), nil
}

func stringToUpper(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.String(strings.ToUpper(r.Str())), nil
}

func stringToLower(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.String(strings.ToLower(r.Str())), nil
}

func stringCapitalize(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	s := r.Str()
	if s == "" {
		return value.String(s), nil
	}
	return value.String(strings.ToUpper(s[:1]) + s[1:]), nil
}

func stringTitleCase(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	words := strings.Fields(r.Str())
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return value.String(strings.Join(words, " ")), nil
}

func splitWords(s string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case r >= 'A' && r <= 'Z':
			flush()
			cur.WriteRune(r + ('a' - 'A'))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}

func stringSnakeCase(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.String(strings.Join(splitWords(r.Str()), "_")), nil
}

func stringKebabCase(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.String(strings.Join(splitWords(r.Str()), "-")), nil
}

func stringCamelCase(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	words := splitWords(r.Str())
	var out strings.Builder
	for i, w := range words {
		if w == "" {
			continue
		}
		if i == 0 {
			out.WriteString(w)
			continue
		}
		out.WriteString(strings.ToUpper(w[:1]) + w[1:])
	}
	return value.String(out.String()), nil
}

func stringStartsWith(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Bool(strings.HasPrefix(r.Str(), args[0].Str())), nil
}

func stringEndsWith(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Bool(strings.HasSuffix(r.Str(), args[0].Str())), nil
}

func stringReplace(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.String(strings.ReplaceAll(r.Str(), args[0].Str(), args[1].Str())), nil
}

func stringContains(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Bool(strings.Contains(r.Str(), args[0].Str())), nil
}

func stringChars(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	runes := []rune(r.Str())
	out := make([]value.Value, len(runes))
	for i, c := range runes {
		out[i] = value.String(string(c))
	}
	return value.Array(out), nil
}

func stringBytes(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Buffer([]byte(r.Str())), nil
}

func stringReverse(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	runes := []rune(r.Str())
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return value.String(string(runes)), nil
}

func stringRepeat(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	n := args[0].Int()
	if n < 0 {
		n = 0
	}
	return value.String(strings.Repeat(r.Str(), int(n))), nil
}

func stringPadLeft(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	s := r.Str()
	n := int(args[0].Int())
	pad := " "
	if len(args) > 1 {
		pad = args[1].Str()
	}
	if pad == "" || len([]rune(s)) >= n {
		return value.String(s), nil
	}
	need := n - len([]rune(s))
	return value.String(strings.Repeat(pad, (need/len(pad))+1)[:need] + s), nil
}

func stringPadRight(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	s := r.Str()
	n := int(args[0].Int())
	pad := " "
	if len(args) > 1 {
		pad = args[1].Str()
	}
	if pad == "" || len([]rune(s)) >= n {
		return value.String(s), nil
	}
	need := n - len([]rune(s))
	return value.String(s + strings.Repeat(pad, (need/len(pad))+1)[:need]), nil
}

func stringCount(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Int(int64(strings.Count(r.Str(), args[0].Str()))), nil
}

func stringIsEmpty(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Bool(r.Str() == ""), nil
}

func stringIndexOf(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Int(int64(strings.Index(r.Str(), args[0].Str()))), nil
}

func stringSubstring(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	runes := []rune(r.Str())
	i, j := clampSlice(args[0].Int(), args[1].Int(), int64(len(runes)))
	return value.String(string(runes[i:j])), nil
}
