package cli

import (
	"github.com/spf13/cobra"
)

var versionOutput string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the caresync version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validateOutput(versionOutput); err != nil {
			return err
		}
		if versionOutput != outputText {
			return writeStructured(cmd.OutOrStdout(), versionOutput, map[string]string{"version": version})
		}
		cmd.Printf("caresync version %s\n", version)
		return nil
	},
}

func init() {
	versionCmd.Flags().StringVarP(&versionOutput, "output", "o", outputText, "output format: text, json or yaml")
	rootCmd.AddCommand(versionCmd)
}
