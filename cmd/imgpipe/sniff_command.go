package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/imgpipe/format"
)

// sniffLimit bounds how much of each file is read; signatures live in the
// first kilobyte.
const sniffLimit = 1024

type sniffReport struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Family string `json:"family"`
	MIME   string `json:"mime,omitempty"`
}

func newSniffCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:         "sniff <file>...",
		Short:       "Print the guessed format of each file",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			reports := make([]sniffReport, 0, len(args))
			for _, path := range args {
				head, err := readHead(path)
				if err != nil {
					return err
				}
				f := format.Sniff(head)
				reports = append(reports, sniffReport{
					Path:   path,
					Format: f.String(),
					Family: f.Family().String(),
					MIME:   f.MIME(),
				})
			}

			if jsonOut {
				return writeJSON(cmd, reports)
			}
			out := cmd.OutOrStdout()
			rows := make([][]string, len(reports))
			for i, r := range reports {
				rows[i] = []string{r.Path, r.Format, r.Family, r.MIME}
			}
			fmt.Fprintln(out, renderTable(out, []string{"Path", "Format", "Family", "MIME"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	return cmd
}

func readHead(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not read: %w", err)
	}
	defer file.Close()
	head, err := io.ReadAll(io.LimitReader(file, sniffLimit))
	if err != nil {
		return nil, fmt.Errorf("could not read: %s: %w", path, err)
	}
	return head, nil
}
