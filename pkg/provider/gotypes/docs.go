package gotypes

import (
	"go/ast"
	"strings"
	"sync"

	"golang.org/x/tools/go/packages"
)

// docIndex maps qualified names to doc comment text. It is process-global
// because type objects reached through fields or signatures do not carry a
// handle back to the package entity that indexed their docs.
type docIndex struct {
	mu sync.RWMutex
	m  map[string]string
}

var docCache = &docIndex{m: map[string]string{}}

func (d *docIndex) set(qname, doc string) {
	d.mu.Lock()
	d.m[qname] = doc
	d.mu.Unlock()
}

func (d *docIndex) lookup(qname string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.m[qname]
}

// collectDocs walks a package's syntax trees for doc comments on the
// package clause, type declarations, functions, and methods, indexing them
// by qualified name.
func collectDocs(pkg *packages.Package) map[string]string {
	out := map[string]string{}
	prefix := dotted(pkg.PkgPath)
	add := func(qname, doc string) {
		doc = strings.TrimSpace(doc)
		if doc == "" {
			return
		}
		out[qname] = doc
		docCache.set(qname, doc)
	}

	for _, file := range pkg.Syntax {
		if file.Doc != nil {
			add(prefix, file.Doc.Text())
		}
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if d.Doc == nil {
					continue
				}
				if d.Recv != nil && len(d.Recv.List) > 0 {
					if recv := recvName(d.Recv.List[0].Type); recv != "" {
						add(prefix+"."+recv+"::"+d.Name.Name, d.Doc.Text())
					}
					continue
				}
				add(prefix+"."+d.Name.Name, d.Doc.Text())
			case *ast.GenDecl:
				for _, spec := range d.Specs {
					ts, ok := spec.(*ast.TypeSpec)
					if !ok {
						continue
					}
					switch {
					case ts.Doc != nil:
						add(prefix+"."+ts.Name.Name, ts.Doc.Text())
					case d.Doc != nil && len(d.Specs) == 1:
						add(prefix+"."+ts.Name.Name, d.Doc.Text())
					}
				}
			}
		}
	}
	return out
}

// recvName unwraps a receiver type expression to its type name.
func recvName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return recvName(e.X)
	case *ast.Ident:
		return e.Name
	case *ast.IndexExpr:
		return recvName(e.X)
	case *ast.IndexListExpr:
		return recvName(e.X)
	}
	return ""
}
