package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// isExecutable reports whether path names an executable regular file.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0111 != 0
}

// delegate spawns target with args and inherited stdio, and returns the exit
// status to propagate. In-place process replacement is not portable, so the
// child is spawned and waited on instead.
func delegate(target string, args []string) int {
	cmd := exec.Command(target, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
