package cmd

import "github.com/spf13/cobra"

func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kestrel",
		Short: "Off-policy reinforcement-learning trainer",
	}
	AddFlags(cmd)

	cmd.AddCommand(
		TrainCommand(),
	)

	return cmd
}
