//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

func Build() error {
	mg.Deps(BuildGainHists)
	fmt.Println("Compilation finished")
	return nil
}

// BuildGainHists builds ./bin/gainhists. HDF5 is linked through cgo, the
// CGO_LDFLAGS and CGO_CFLAGS of the environment are passed along.
func BuildGainHists() error {
	fmt.Println("Building gainhists executable...")
	return goCmd("build", "-o", "./bin/gainhists", "./gainhists").Run()
}

func Test() error {
	fmt.Println("Running tests...")
	return goCmd("test", "./...").Run()
}

func Clean() error {
	fmt.Println("Removing ./bin")
	return os.RemoveAll("./bin")
}

func goCmd(args ...string) *exec.Cmd {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}
