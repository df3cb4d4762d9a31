package commands

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/voltlab/circuitforge/bom"
	"github.com/voltlab/circuitforge/circuit"
	"github.com/voltlab/circuitforge/diagram"
)

var (
	bomFilePath string
	svgOutPath  string
)

var diagramCmd = &cobra.Command{
	Use:   "diagram",
	Short: "Render a block diagram SVG from a BOM file",
	Long: `Render the left to right block diagram for a component list without
starting the server or contacting the model endpoint.

The BOM file may be CSV or XLSX with "type" and "value" columns (the export
format of the web app). Without --file the built in default components are
rendered.

Example:
  circuitforge diagram --file circuit_BOM.xlsx -o diagram.svg`,
	RunE: func(cmd *cobra.Command, args []string) error {
		components := circuit.DefaultComponents()
		if bomFilePath != "" {
			f, err := os.Open(bomFilePath)
			if err != nil {
				return err
			}
			defer f.Close()

			upload, err := bom.Parse(bomFilePath, f)
			if err != nil {
				return err
			}
			components = nil
			for _, row := range upload.Rows {
				c := circuit.Component{}
				if len(row) > 0 {
					c.Kind = row[0]
				}
				if len(row) > 1 {
					c.Value = row[1]
				}
				components = append(components, c)
			}
		}

		d := diagram.Layout(components)

		out := os.Stdout
		if svgOutPath != "" {
			f, err := os.Create(svgOutPath)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		if err := d.WriteSVG(out); err != nil {
			return err
		}

		if svgOutPath != "" {
			color.Green("Wrote %s (%d boxes, %d connectors)", svgOutPath, len(d.Boxes), len(d.Connectors))
		}
		return nil
	},
}

func init() {
	diagramCmd.Flags().StringVarP(&bomFilePath, "file", "f", "", "BOM file (CSV or XLSX) to read components from")
	diagramCmd.Flags().StringVarP(&svgOutPath, "out", "o", "", "Output SVG path (default: stdout)")
	rootCmd.AddCommand(diagramCmd)
}
