package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/regchunk/internal/parser"
)

var infoCmd = &cobra.Command{
	Use:   "info FILE",
	Short: "Show page count and metadata of a PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := parser.PDFInfo(args[0])
		if err != nil {
			return err
		}
		return output(cmd, info)
	},
}
