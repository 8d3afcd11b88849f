//go:build tools
// +build tools

// This file imports packages that are used when running go generate, or used
// during the development process but not otherwise depended on by built code.

package licensedesk

import (
	_ "golang.org/x/tools/cmd/goimports"
)
