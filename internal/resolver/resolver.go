// Package resolver loads Eiko source files and package directories, builds
// the import graph, detects cyclic imports, and caches parsed ASTs by
// canonical path, per spec.md §4.D. The teacher's pipeline compiles a single
// file with no import graph, so this package has no direct teacher analog;
// its shape is grounded on spec.md §4.D's own state-machine description
// (canonical path → {Loading, Loaded(env)}) rather than on borrowed code.
package resolver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/diag"
	"github.com/kazaamjt/eikobot/internal/lexer"
	"github.com/kazaamjt/eikobot/internal/parser"
)

// PackageMarker is the file that makes a directory importable as a package.
const PackageMarker = "__init__.eiko"

// SourceExt is the Eiko source file extension.
const SourceExt = ".eiko"

// State is a module's position in the load state machine.
type State int

const (
	// Unseen means no load has ever been attempted for this path.
	Unseen State = iota
	// Loading means evaluation of the module is in progress; encountering
	// this state again while resolving an import is a cyclic-import error.
	Loading
	// Loaded means the module evaluated successfully and its environment is
	// cached.
	Loaded
)

// entry tracks one canonical path's state plus whatever the caller (the
// evaluator) has stashed there.
type entry struct {
	state State
	prog  *ast.Program
	env   any
}

// Resolver maintains the canonical-path → module-state map spec.md §4.D
// calls for. It is deliberately ignorant of evaluated values: Env is stored
// as `any` so this package never imports internal/eval, which would create
// an import cycle (eval imports resolver to load modules it references).
type Resolver struct {
	sm *diag.SourceMap

	// PackageRoots are searched, in order, after the entry file's own
	// directory, for non-relative imports (spec.md §4.D: "the entry file's
	// directory, then package roots installed by the external package
	// manager").
	PackageRoots []string

	entries map[string]*entry
}

// New creates a Resolver. sm is used to load and cache file contents so
// diagnostics can quote source lines.
func New(sm *diag.SourceMap, packageRoots ...string) *Resolver {
	return &Resolver{sm: sm, entries: make(map[string]*entry), PackageRoots: packageRoots}
}

func (r *Resolver) get(path string) *entry {
	e, ok := r.entries[path]
	if !ok {
		e = &entry{}
		r.entries[path] = e
	}
	return e
}

// StateOf reports the current state of path, after canonicalization.
func (r *Resolver) StateOf(path string) State {
	canon, err := diag.Canonical(path)
	if err != nil {
		return Unseen
	}
	return r.get(canon).state
}

// BeginLoad marks path as Loading. It returns a cyclic-import diag.Error if
// the module is already Loading (i.e. it imports itself, directly or
// transitively).
func (r *Resolver) BeginLoad(path string) (string, error) {
	canon, err := diag.Canonical(path)
	if err != nil {
		return "", diag.New(diag.KindImportError, diag.SubNone, diag.Span{File: path},
			"cannot resolve %s: %s", path, err)
	}
	e := r.get(canon)
	if e.state == Loading {
		return canon, diag.New(diag.KindImportError, diag.SubCyclic, diag.Span{File: canon},
			"cyclic import detected while loading %s", canon)
	}
	e.state = Loading
	return canon, nil
}

// FinishLoad records env as the loaded module's environment and marks it
// Loaded. Called by the evaluator once a module's statements have all run.
func (r *Resolver) FinishLoad(canon string, env any) {
	e := r.get(canon)
	e.state = Loaded
	e.env = env
}

// Env returns the cached environment for an already-Loaded module.
func (r *Resolver) Env(canon string) (any, bool) {
	e, ok := r.entries[canon]
	if !ok || e.state != Loaded {
		return nil, false
	}
	return e.env, true
}

// Parse loads, lexes, and parses canon, caching the resulting AST so a
// re-import of the same canonical path never re-parses the file (spec.md
// §4.D's "Lifecycle": source loaded once per absolute path, AST cached by
// canonical path).
func (r *Resolver) Parse(canon string) (*ast.Program, []*diag.Error, error) {
	if e, ok := r.entries[canon]; ok && e.prog != nil {
		return e.prog, nil, nil
	}

	_, content, err := r.sm.Load(canon)
	if err != nil {
		return nil, nil, diag.New(diag.KindImportError, diag.SubNotFound, diag.Span{File: canon},
			"cannot read %s: %s", canon, err)
	}

	lx := lexer.New(canon, content)
	ps := parser.New(canon, lx)
	prog := ps.ParseProgram()

	var errs []*diag.Error
	for _, le := range lx.Errors() {
		errs = append(errs, diag.New(diag.KindLexError, diag.SubNone, le.Span, "%s", le.Message))
	}
	errs = append(errs, ps.Errors()...)

	r.get(canon).prog = prog
	return prog, errs, nil
}

// ResolveImport computes the canonical file path for an import statement.
// fromFile is the canonical path of the file containing the import; dots is
// the count of leading dots (0 for an absolute/search-path import); parts is
// the dotted module path, e.g. ["net", "ssh"] for `net.ssh`.
func (r *Resolver) ResolveImport(fromFile string, dots int, parts []string) (string, error) {
	if len(parts) == 0 {
		return "", diag.New(diag.KindImportError, diag.SubNone, diag.Span{File: fromFile},
			"empty import path")
	}

	rel := filepath.Join(parts...)

	if dots > 0 {
		dir := filepath.Dir(fromFile)
		for i := 1; i < dots; i++ {
			dir = filepath.Dir(dir)
		}
		return r.resolveUnder(dir, rel, fromFile)
	}

	if p, err := r.resolveUnder(filepath.Dir(fromFile), rel, fromFile); err == nil {
		return p, nil
	}
	for _, root := range r.PackageRoots {
		if p, err := r.resolveUnder(root, rel, fromFile); err == nil {
			return p, nil
		}
	}
	return "", diag.New(diag.KindImportError, diag.SubNotFound, diag.Span{File: fromFile},
		"module %s not found on the search path", strings.Join(parts, "."))
}

// resolveUnder tries base/rel.eiko, then base/rel/__init__.eiko (a package
// directory, per spec.md §4.D: "A directory is a package iff it contains
// __init__.eiko").
func (r *Resolver) resolveUnder(base, rel, fromFile string) (string, error) {
	asFile := filepath.Join(base, rel+SourceExt)
	if fileExists(asFile) {
		return diag.Canonical(asFile)
	}
	asPkg := filepath.Join(base, rel, PackageMarker)
	if fileExists(asPkg) {
		return diag.Canonical(asPkg)
	}
	return "", diag.New(diag.KindImportError, diag.SubNotFound, diag.Span{File: fromFile},
		"no module or package at %s", filepath.Join(base, rel))
}

// IsPackageDir reports whether dir contains a package marker file.
func IsPackageDir(dir string) bool {
	return fileExists(filepath.Join(dir, PackageMarker))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
