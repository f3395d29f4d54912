package route

import (
	"fmt"
	"regexp"

	"go.hackfix.me/waypoint/web/server/types"
)

// Pattern decides whether a request path is handled by an entry. The path
// is the request URL without its query string. It is either a Literal or a
// Regex.
type Pattern interface {
	// MatchPath reports whether the path is accepted by the pattern.
	MatchPath(path string) bool
	// String returns the source text of the pattern.
	String() string

	isPattern()
}

// Literal is a Pattern that accepts exactly one path.
type Literal string

var _ Pattern = Literal("")

// MatchPath reports whether path is equal to the literal.
func (l Literal) MatchPath(path string) bool {
	return string(l) == path
}

func (l Literal) String() string {
	return string(l)
}

func (Literal) isPattern() {}

// Regex is a Pattern backed by a regular expression. Named capture groups
// become URL parameters.
type Regex struct {
	re *regexp.Regexp
}

var _ Pattern = (*Regex)(nil)

// NewRegex compiles expr into a Regex pattern.
func NewRegex(expr string) (*Regex, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("failed compiling route pattern: %w", err)
	}
	return &Regex{re: re}, nil
}

// MustRegex is like NewRegex but panics if expr is invalid. It is intended
// for route tables declared at setup time.
func MustRegex(expr string) *Regex {
	r, err := NewRegex(expr)
	if err != nil {
		panic(err)
	}
	return r
}

// MatchPath reports whether the expression matches anywhere in path.
func (r *Regex) MatchPath(path string) bool {
	return r.re.MatchString(path)
}

// Captures returns the named groups that participated in the first match of
// the expression in path. It returns an empty map if there is no match.
func (r *Regex) Captures(path string) map[string]string {
	params := map[string]string{}
	loc := r.re.FindStringSubmatchIndex(path)
	if loc == nil {
		return params
	}

	for i, name := range r.re.SubexpNames() {
		if name == "" || loc[2*i] < 0 {
			continue
		}
		params[name] = path[loc[2*i]:loc[2*i+1]]
	}

	return params
}

func (r *Regex) String() string {
	return r.re.String()
}

func (*Regex) isPattern() {}

// Match reports whether the path of req is accepted by p. A nil pattern
// accepts nothing.
func Match(p Pattern, req *types.Request) bool {
	if p == nil || req == nil {
		return false
	}
	return p.MatchPath(req.Path())
}
