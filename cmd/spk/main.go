// Command spk inspects, extracts, and verifies SPK archive containers.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	spk "github.com/sverrewl/spike-spk"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "spk",
		Short:         "Inspect and extract SPK archives",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	logger := func() *slog.Logger {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	cmd.AddCommand(
		newListCommand(logger),
		newExtractCommand(logger),
		newVerifyCommand(logger),
	)
	return cmd
}

func newListCommand(logger func() *slog.Logger) *cobra.Command {
	var digests bool

	cmd := &cobra.Command{
		Use:   "list ARCHIVE",
		Short: "List packages and files in an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := spk.Open(args[0], spk.WithLogger(logger()))
			if err != nil {
				return err
			}
			defer archive.Close()

			out := cmd.OutOrStdout()
			for _, pkg := range archive.Packages {
				fmt.Fprintf(out, "%s %s (%s, %s) %d files\n",
					pkg.Name, pkg.Version, pkg.Type, orDash(pkg.ID), len(pkg.Files))
				for _, f := range pkg.Files {
					if digests {
						fmt.Fprintf(out, "  %10d  %s  %s\n", f.Size, f.ContentDigest(), f.Name)
					} else {
						fmt.Fprintf(out, "  %10d  %s\n", f.Size, f.Name)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&digests, "digests", false, "show content digests")
	return cmd
}

func newExtractCommand(logger func() *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "extract ARCHIVE DIR",
		Short: "Extract all files into a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := spk.Open(args[0], spk.WithLogger(logger()))
			if err != nil {
				return err
			}
			defer archive.Close()
			return archive.Extract(args[1])
		},
	}
}

func newVerifyCommand(logger func() *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "verify ARCHIVE",
		Short: "Verify every file against its recorded digests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := spk.Open(args[0], spk.WithLogger(logger()))
			if err != nil {
				return err
			}
			defer archive.Close()

			var failed int
			for _, pkg := range archive.Packages {
				for _, f := range pkg.Files {
					if err := archive.Verify(f); err != nil {
						failed++
						fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s/%s: %v\n", pkg.Name, f.Name, err)
					}
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d files failed verification", failed)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
