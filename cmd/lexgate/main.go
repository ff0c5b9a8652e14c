package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/casefold-ai/lexgate/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lexgate",
		Short: "Lexgate web gateway",
		Long:  "Web gateway for the legal research backend: auth, chat streaming, and source presentation",
	}

	rootCmd.AddCommand(cli.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
