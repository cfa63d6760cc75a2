package main

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/spf13/cobra"

	"tsumego_exe/internal/domain/tsumego"
)

func newReportCmd() *cobra.Command {
	var (
		statePath string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "report <export.json>",
		Short: "Write a PDF solution sheet for a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, result, err := analyzeFile(cmd.Context(), args[0], statePath)
			if err != nil {
				return err
			}
			if err = generatePDF(g.Slug(), result, output); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "PDF written:", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&statePath, "state", "", "file with a {\"state\": ...} query")
	cmd.Flags().StringVarP(&output, "out", "o", "solution.pdf", "output file")
	return cmd
}

func generatePDF(title string, result tsumego.AnalysisResult, output string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, title)
	pdf.Ln(10)

	pdf.SetFont("Courier", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Value: [%v, %v]", result.Low, result.High))
	pdf.Ln(6)
	pdf.MultiCell(0, 5, "Low line:  "+formatLine(result.LowPrincipal), "", "L", false)
	pdf.MultiCell(0, 5, "High line: "+formatLine(result.HighPrincipal), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Courier", "B", 10)
	for _, h := range []struct {
		text  string
		width float64
	}{{"Move", 18}, {"Low gain", 22}, {"High gain", 22}, {"Flags", 50}} {
		pdf.CellFormat(h.width, 6, h.text, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Courier", "", 10)
	for _, m := range result.Moves {
		pdf.CellFormat(18, 5, m.Coordinate().String(), "", 0, "L", false, 0, "")
		pdf.CellFormat(22, 5, fmt.Sprintf("%v", m.LowGain), "", 0, "L", false, 0, "")
		pdf.CellFormat(22, 5, fmt.Sprintf("%v", m.HighGain), "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 5, moveFlags(m), "", 0, "L", false, 0, "")
		pdf.Ln(5)
		pdf.MultiCell(0, 4.5, "    low:  "+formatLine(m.LowPrincipal), "", "L", false)
		pdf.MultiCell(0, 4.5, "    high: "+formatLine(m.HighPrincipal), "", "L", false)
	}

	return pdf.OutputFileAndClose(output)
}
