// Command staticlint is the project's multichecker. It runs a fixed set of
// go/analysis passes, every staticcheck SA analyzer except the ones listed
// in STATICLINT_DISABLE (comma separated), ineffassign, nilerr and the
// project analyzers noosexit and nogetenv.
//
// Usage:
//
//	go run ./cmd/staticlint ./...
package main

import (
	"os"
	"strings"

	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"honnef.co/go/tools/staticcheck"

	"github.com/patric-chuzhbe/docsvc/cmd/staticlint/nogetenv"
	"github.com/patric-chuzhbe/docsvc/cmd/staticlint/noosexit"
)

const disableEnv = "STATICLINT_DISABLE"

func main() {
	multichecker.Main(analyzers(os.Getenv(disableEnv))...)
}

func analyzers(disabled string) []*analysis.Analyzer {
	skip := map[string]bool{}
	for _, name := range strings.Split(disabled, ",") {
		if name = strings.TrimSpace(name); name != "" {
			skip[name] = true
		}
	}

	checks := []*analysis.Analyzer{
		copylock.Analyzer,
		errorsas.Analyzer,
		httpresponse.Analyzer,
		lostcancel.Analyzer,
		printf.Analyzer,
		structtag.Analyzer,
		unreachable.Analyzer,

		ineffassign.Analyzer,
		nilerr.Analyzer,

		noosexit.Analyzer,
		nogetenv.Analyzer,
	}

	for _, v := range staticcheck.Analyzers {
		if !skip[v.Analyzer.Name] {
			checks = append(checks, v.Analyzer)
		}
	}

	result := make([]*analysis.Analyzer, 0, len(checks))
	for _, check := range checks {
		if !skip[check.Name] {
			result = append(result, check)
		}
	}

	return result
}
