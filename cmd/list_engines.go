package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"dbmig/internal/connector"
)

var listEnginesCmd = &cobra.Command{
	Use:   "list-engines",
	Short: "List the source and target engines this build supports",
	RunE: func(cmd *cobra.Command, args []string) error {
		names := connector.EngineNames()
		var roles []string
		for role := range names {
			roles = append(roles, role)
		}
		sort.Strings(roles)
		for _, role := range roles {
			engines := append([]string(nil), names[role]...)
			sort.Strings(engines)
			fmt.Printf("%s: %v\n", role, engines)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(listEnginesCmd)
}
