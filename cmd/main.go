package main

import (
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(editCmd)

	dumpCmd.Flags().Bool("json", false, "Output headers in JSON format")
	dumpCmd.Flags().IntP("hdu", "n", -1, "Only dump the header of the given HDU (0-based)")

	verifyCmd.Flags().IntP("threads", "t", runtime.NumCPU(), "Number of threads to use for verification")
	verifyCmd.Flags().Bool("json", false, "Output results in JSON format")
	verifyCmd.Flags().Bool("checksum", false, "Report a checksum for every data unit")

	editCmd.Flags().StringP("patch", "p", "", "JSON file of keyword edits to apply to the primary header")
	editCmd.Flags().StringP("output", "o", "", "Output path (defaults to editing the file in place)")
	editCmd.Flags().String("compression", "", "Output compression: GZIP or ZSTD (defaults to the input's)")
	editCmd.MarkFlagRequired("patch")
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fits",
	Short: "Utility to inspect and edit FITS headers",
	Long:  `Utility to inspect and edit FITS headers`,
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the header cards of one or many FITS file(s)",
	Long:  `Print the header cards of one or many FITS file(s)`,
	Args:  cobra.MinimumNArgs(1),
	Run:   dump,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the header structure of one or many FITS file(s)",
	Long:  `Verify the header structure of one or many FITS file(s)`,
	Args:  cobra.MinimumNArgs(1),
	Run:   verify,
}

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Apply a JSON patch to the primary header of a FITS file",
	Long:  `Apply a JSON patch to the primary header of a FITS file`,
	Args:  cobra.ExactArgs(1),
	Run:   edit,
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
