package main

import (
	"errors"
	"fmt"
	"os"

	gwerrors "github.com/avigneault/groundwork/pkg/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps command errors to process exit codes: catalog parse and
// validation problems exit 2, everything else exits 1. Run outcomes are
// handled inside the runners via report.ExitCode.
func exitCodeFor(err error) int {
	var parseErr *gwerrors.ParseError
	var valErr *gwerrors.ValidationError
	switch {
	case errors.As(err, &parseErr), errors.As(err, &valErr):
		return 2
	default:
		return 1
	}
}
