package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dbmig/internal/dberrors"
	"dbmig/internal/model"
)

var showCheckpointsCmd = &cobra.Command{
	Use:   "show-checkpoints",
	Short: "Print the checkpoint state of every table in a run",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := pl.Paths.Checkpoints()
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			fmt.Printf("no checkpoints recorded yet for run %s\n", pl.Paths.RunID)
			return nil
		}
		if err != nil {
			return dberrors.New(dberrors.CategoryLoad, "", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TABLE\tSTATUS\tROWS LOADED\tROWS FAILED\tLAST OFFSET\tLAST PK\tCHUNK SIZE\tUPDATED")
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
			if err != nil {
				continue
			}
			var cp model.Checkpoint
			if err := json.Unmarshal(raw, &cp); err != nil {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%d\t%s\n",
				cp.Table, cp.Status, cp.RowsLoaded, cp.RowsFailed, cp.LastOffset, cp.LastPKValue, cp.ChunkSize, cp.UpdatedAt.Format("2006-01-02T15:04:05Z"))
		}
		return w.Flush()
	},
}

func init() {
	RootCmd.AddCommand(showCheckpointsCmd)
}
