// Package nogetenv keeps environment reads inside the config package.
// Other packages receive settings through config.Config instead of reading
// process-wide state on their own.
package nogetenv

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
)

var Analyzer = &analysis.Analyzer{
	Name: "nogetenv",
	Doc:  "reports environment reads outside package config and main packages",
	Run:  run,
}

var envReaders = map[string]bool{
	"Getenv":    true,
	"LookupEnv": true,
	"Environ":   true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	switch pass.Pkg.Name() {
	case "config", "main":
		return nil, nil
	}

	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok || !envReaders[sel.Sel.Name] {
				return true
			}

			fn, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
			if ok && fn.Pkg() != nil && fn.Pkg().Path() == "os" {
				pass.Reportf(sel.Pos(), "os.%s outside package config; pass the value in through config.Config", sel.Sel.Name)
			}

			return true
		})
	}

	return nil, nil
}
