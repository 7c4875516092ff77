package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tts-gateway/internal/cache"
)

func idCmd() *cobra.Command {
	var fromStdin bool
	cmd := &cobra.Command{
		Use:   "id [phrase]",
		Short: "Print the cache identifier of a phrase",
		Long: "Print the identifier a phrase is stored under. The phrase is hashed\n" +
			"byte for byte, so surrounding whitespace and case matter.",
		Args: func(cmd *cobra.Command, args []string) error {
			if fromStdin {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var phrase string
			if fromStdin {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				phrase = strings.TrimSuffix(string(data), "\n")
			} else {
				phrase = args[0]
			}
			fmt.Fprintln(cmd.OutOrStdout(), cache.DerivePhraseID(phrase))
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the phrase from stdin (one trailing newline is dropped)")
	return cmd
}
