// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AleutianAI/fieldbench/pkg/ux"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return CLIExitSuccess
	}

	p := ux.NewPrinter(stderr)
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		if cmdErr.ExitCode == CLIExitFindings {
			p.Warning(cmdErr.Error())
		} else {
			p.Error(cmdErr.Error())
		}
		return cmdErr.ExitCode
	}

	p.Error(fmt.Sprintf("Error: %v", err))
	return CLIExitError
}
