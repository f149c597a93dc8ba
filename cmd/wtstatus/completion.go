package main

import (
	"fmt"
	"os"

	_ "embed"

	urfavecli "github.com/urfave/cli/v2"
)

//go:embed templates/zsh_completion.zsh
var zshCompletion []byte

//go:embed templates/bash_completion.bash
var bashCompletion []byte

// completionCommand returns the completion subcommand definition.
func completionCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "completion",
		Usage:     "Generate shell completion scripts",
		ArgsUsage: "<bash|zsh>",
		Action:    handleCompletion,
	}
}

func handleCompletion(c *urfavecli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("usage: wtstatus completion <bash|zsh>")
	}

	switch shell := c.Args().First(); shell {
	case "bash":
		_, _ = os.Stdout.Write(bashCompletion)
	case "zsh":
		_, _ = os.Stdout.Write(zshCompletion)
	default:
		return fmt.Errorf("unsupported shell: %s (supported: bash, zsh)", shell)
	}
	return nil
}
