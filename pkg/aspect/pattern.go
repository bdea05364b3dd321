package aspect

import "regexp"

// Pattern is a compiled point-cut. It matches a qualified name when the
// expression matches at the start of the name; the rest of the name may be
// left unmatched.
type Pattern struct {
	source string
	re     *regexp.Regexp
}

// CompilePattern compiles src once. A malformed expression yields a
// *MatchPatternError.
func CompilePattern(src string) (*Pattern, error) {
	// The bare source is checked first: wrapping it in a group would accept
	// unbalanced input such as "a)|(b".
	if _, err := regexp.Compile(src); err != nil {
		return nil, &MatchPatternError{Pattern: src, Err: err}
	}
	re, err := regexp.Compile(`^(?:` + src + `)`)
	if err != nil {
		return nil, &MatchPatternError{Pattern: src, Err: err}
	}
	return &Pattern{source: src, re: re}, nil
}

// MustCompilePattern is CompilePattern for static patterns; it panics on error.
func MustCompilePattern(src string) *Pattern {
	p, err := CompilePattern(src)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Pattern) Match(qualifiedName string) bool {
	if p == nil {
		return false
	}
	return p.re.MatchString(qualifiedName)
}

func (p *Pattern) String() string {
	if p == nil {
		return ""
	}
	return p.source
}
