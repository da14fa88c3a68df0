//go:build tools

package tools

// Pins code generation tooling in go.mod.
import (
	_ "github.com/vektra/mockery/v2"
)
