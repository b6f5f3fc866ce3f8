package parser

import (
	"fmt"
	"strings"

	"github.com/gubarz/semtex/internal/source"
)

// DefaultExtension is appended to include stems that lack it
const DefaultExtension = ".tex"

// Checker answers whether a resolved include target exists
type Checker interface {
	Exists(path string) bool
}

// Resolver turns \include and \input directives into pending work. One
// Resolver serves one file's scan.
type Resolver struct {
	fs        Checker
	extension string
	baseDir   string
	enqueue   func(path string) bool

	includes []string
}

// NewResolver creates a resolver. enqueue receives every existing target and
// reports whether it was new to the run.
func NewResolver(fs Checker, baseDir, extension string, enqueue func(path string) bool) *Resolver {
	if extension == "" {
		extension = DefaultExtension
	}
	return &Resolver{
		fs:        fs,
		extension: extension,
		baseDir:   baseDir,
		enqueue:   enqueue,
	}
}

// Triggers returns the \include and \input triggers bound to this resolver
func (r *Resolver) Triggers() []Trigger {
	return []Trigger{
		{Token: IncludeToken, Kind: KindInclude, Handler: r.Handle},
		{Token: InputToken, Kind: KindInput, Handler: r.Handle},
	}
}

// Includes returns the resolved targets found so far, in source order
func (r *Resolver) Includes() []string {
	return r.includes
}

// Handle parses the argument list after a directive and resolves it
func (r *Resolver) Handle(c *Cursor, d Directive) error {
	args, err := ParseArgs(c)
	if err != nil {
		return err
	}
	return r.Resolve(d, args)
}

// Resolve validates the argument shape, checks the target exists and
// enqueues it
func (r *Resolver) Resolve(d Directive, args *Args) error {
	if len(args.Unnamed) != 1 || len(args.Named) != 0 {
		return &Error{
			Kind: InvalidArgumentShape,
			Line: d.Line,
			Msg:  "directive takes a single, unnamed argument",
		}
	}

	target := r.Target(args.Unnamed[0])
	if !r.fs.Exists(target) {
		return &Error{
			Kind: MissingIncludeTarget,
			Line: d.Line,
			Msg:  fmt.Sprintf("cannot find %q", target),
			Path: target,
		}
	}

	r.includes = append(r.includes, target)
	if r.enqueue != nil {
		r.enqueue(target)
	}
	return nil
}

// Target maps an include stem to the canonical file path it names
func (r *Resolver) Target(stem string) string {
	if !strings.HasSuffix(stem, r.extension) {
		stem += r.extension
	}
	return source.Join(r.baseDir, stem)
}
