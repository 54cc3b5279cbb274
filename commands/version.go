package commands

import (
	"flag"
	"fmt"
)

// VERSION is set at build time with -ldflags "-X github.com/sage-bionetworks/brats-app-sheets/commands.VERSION=..."
var VERSION = "v0.0.x"

var VersionCmd = Version{}

// Version is a CLI command implementation that displays the version information.
type Version struct {
}

func (c *Version) FlagSet() *flag.FlagSet {
	return flag.NewFlagSet("version", flag.ExitOnError)
}

func (c *Version) Execute(...any) error {
	fmt.Printf("%s\n", VERSION)

	return nil
}

func (c *Version) Name() string {
	return "version"
}

func (c *Version) Description() string {
	return "Displays the current version"
}

func (c *Version) Usage() string {
	return ""
}

func (c *Version) Help() {
	fmt.Printf("Displays the %s version in the format v<major>.<minor>.<build> e.g. v1.00.10\n", APP)
	fmt.Println()
}
