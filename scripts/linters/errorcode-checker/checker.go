package main

import (
	"bufio"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var codeFormat = regexp.MustCompile(`^[a-z][a-z0-9_]*\.[a-z][a-z0-9_]*$`)

// CodeInfo is one errors.MustNewCode declaration
type CodeInfo struct {
	Var     string
	Code    string
	Package string
	File    string
	Line    int
	Used    bool
}

// Violation is a problem found in a source file
type Violation struct {
	File    string
	Line    int
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s:%d: %s", v.File, v.Line, v.Message)
}

// ErrorCodeChecker collects code declarations and their uses across a tree
type ErrorCodeChecker struct {
	fileSet    *token.FileSet
	codes      map[string]*CodeInfo // keyed by package + "." + var
	forbidden  []*regexp.Regexp
	violations []Violation
	verbose    bool
}

// NewErrorCodeChecker compiles the forbidden patterns of cfg
func NewErrorCodeChecker(cfg *Config) (*ErrorCodeChecker, error) {
	c := &ErrorCodeChecker{
		fileSet: token.NewFileSet(),
		codes:   make(map[string]*CodeInfo),
		verbose: cfg.Verbose,
	}
	for _, p := range cfg.ForbiddenPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid forbidden pattern %q: %w", p, err)
		}
		c.forbidden = append(c.forbidden, re)
	}
	return c, nil
}

func (c *ErrorCodeChecker) debug(format string, args ...interface{}) {
	if c.verbose {
		fmt.Printf(format, args...)
	}
}

// CheckDirectory parses every Go file under dir in two passes: declarations, then uses
func (c *ErrorCodeChecker) CheckDirectory(dir string, excludePaths []string) error {
	var files []*ast.File
	var paths []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		slashed := filepath.ToSlash(path)
		for _, exclude := range excludePaths {
			if strings.Contains(slashed, exclude) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		if info.IsDir() || !strings.HasSuffix(path, ".go") {
			return nil
		}

		file, err := parser.ParseFile(c.fileSet, path, nil, 0)
		if err != nil {
			return fmt.Errorf("failed to parse file %s: %w", path, err)
		}
		files = append(files, file)
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return err
	}

	for i, file := range files {
		c.collectDeclarations(file, paths[i])
	}
	for i, file := range files {
		c.collectUses(file)
		if !strings.HasSuffix(paths[i], "_test.go") {
			if err := c.checkForbidden(paths[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// collectDeclarations records vars initialized with errors.MustNewCode("...")
func (c *ErrorCodeChecker) collectDeclarations(file *ast.File, path string) {
	pkg := file.Name.Name

	ast.Inspect(file, func(n ast.Node) bool {
		spec, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, name := range spec.Names {
			if i >= len(spec.Values) {
				break
			}
			code, ok := mustNewCodeArg(spec.Values[i])
			if !ok {
				continue
			}
			pos := c.fileSet.Position(name.Pos())
			info := &CodeInfo{Var: name.Name, Code: code, Package: pkg, File: path, Line: pos.Line}
			c.codes[pkg+"."+name.Name] = info
			c.debug("declared %s = %q in %s:%d\n", name.Name, code, path, pos.Line)

			if !codeFormat.MatchString(code) {
				c.violations = append(c.violations, Violation{path, pos.Line,
					fmt.Sprintf("code %q must be 'package.name' in lowercase", code)})
			}
		}
		return true
	})
}

func mustNewCodeArg(expr ast.Expr) (string, bool) {
	call, ok := expr.(*ast.CallExpr)
	if !ok || len(call.Args) != 1 {
		return "", false
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "MustNewCode" {
		return "", false
	}
	lit, ok := call.Args[0].(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	code, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return code, true
}

// collectUses marks a code used when it is referenced anywhere except its own declaration
func (c *ErrorCodeChecker) collectUses(file *ast.File) {
	pkg := file.Name.Name
	imports := importNames(file)

	ast.Inspect(file, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.ValueSpec:
			// skip the declared names, still visit the values
			for _, v := range x.Values {
				ast.Inspect(v, func(n ast.Node) bool {
					c.markUse(n, pkg, imports)
					return true
				})
			}
			return false
		default:
			c.markUse(n, pkg, imports)
		}
		return true
	})
}

func (c *ErrorCodeChecker) markUse(n ast.Node, pkg string, imports map[string]string) {
	switch x := n.(type) {
	case *ast.SelectorExpr:
		if id, ok := x.X.(*ast.Ident); ok {
			if target, ok := imports[id.Name]; ok {
				if info, ok := c.codes[target+"."+x.Sel.Name]; ok {
					info.Used = true
				}
			}
		}
	case *ast.Ident:
		if info, ok := c.codes[pkg+"."+x.Name]; ok {
			info.Used = true
		}
	}
}

// importNames maps the local name of each import to its package name
func importNames(file *ast.File) map[string]string {
	out := make(map[string]string)
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := path[strings.LastIndex(path, "/")+1:]
		local := name
		if imp.Name != nil {
			local = imp.Name.Name
		}
		out[local] = name
	}
	return out
}

func (c *ErrorCodeChecker) checkForbidden(path string) error {
	if len(c.forbidden) == 0 {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		for _, re := range c.forbidden {
			if re.MatchString(scanner.Text()) {
				c.violations = append(c.violations, Violation{path, line,
					fmt.Sprintf("forbidden pattern %q", re.String())})
			}
		}
	}
	return scanner.Err()
}

// Unused lists codes nothing references, sorted by file and line
func (c *ErrorCodeChecker) Unused() []*CodeInfo {
	var out []*CodeInfo
	for _, info := range c.codes {
		if !info.Used {
			out = append(out, info)
		}
	}
	sortCodes(out)
	return out
}

// Duplicates lists code strings declared more than once
func (c *ErrorCodeChecker) Duplicates() map[string][]*CodeInfo {
	byCode := make(map[string][]*CodeInfo)
	for _, info := range c.codes {
		byCode[info.Code] = append(byCode[info.Code], info)
	}
	for code, infos := range byCode {
		if len(infos) < 2 {
			delete(byCode, code)
			continue
		}
		sortCodes(infos)
	}
	return byCode
}

// Violations lists format and forbidden pattern problems
func (c *ErrorCodeChecker) Violations() []Violation {
	out := append([]Violation(nil), c.violations...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Line < out[j].Line
	})
	return out
}

func sortCodes(infos []*CodeInfo) {
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].File != infos[j].File {
			return infos[i].File < infos[j].File
		}
		return infos[i].Line < infos[j].Line
	})
}
