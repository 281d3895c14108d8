package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"currentflow"
)

type solveReport struct {
	Network  string         `json:"network"`
	ID       *uuid.UUID     `json:"id,omitempty"`
	Error    string         `json:"error,omitempty"`
	Nodes    int            `json:"nodes"`
	Branches []branchReport `json:"branches"`
}

// branchReport leaves Rating and Loading out for unrated branches; JSON has
// no infinity.
type branchReport struct {
	ID              int      `json:"id"`
	SourceCell      int      `json:"source_cell"`
	DestinationCell int      `json:"destination_cell"`
	Wires           []int    `json:"wires"`
	Flow            float64  `json:"flow"`
	Rating          *float64 `json:"rating,omitempty"`
	Loading         *float64 `json:"loading,omitempty"`
	Overloaded      bool     `json:"overloaded"`
}

func newSolveReport(o currentflow.Outcome) solveReport {
	report := solveReport{Network: o.Network, Branches: []branchReport{}}
	if o.Err != nil {
		report.Error = o.Err.Error()
		return report
	}

	r := o.Result
	id := r.ID
	report.ID = &id
	report.Nodes = len(r.Graph.Nodes)

	for i, b := range r.Graph.Branches {
		br := branchReport{
			ID:              b.ID,
			SourceCell:      b.SourceCell,
			DestinationCell: b.DestinationCell,
			Wires:           b.Wires,
			Flow:            r.Flows[i],
		}
		if !math.IsInf(b.Rating, 1) {
			rating, loading := b.Rating, r.Loading(i)
			br.Rating = &rating
			br.Loading = &loading
			br.Overloaded = loading > 1
		}
		report.Branches = append(report.Branches, br)
	}
	return report
}

func writeJSON(w io.Writer, outcomes []currentflow.Outcome) error {
	reports := make([]solveReport, len(outcomes))
	for i, o := range outcomes {
		reports[i] = newSolveReport(o)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(reports), "encode results")
}

func writeTable(w io.Writer, outcomes []currentflow.Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, o := range outcomes {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		report := newSolveReport(o)
		if report.Error != "" {
			fmt.Fprintf(tw, "network %s: %s\n", report.Network, report.Error)
			continue
		}

		fmt.Fprintf(tw, "network %s: %d nodes, %d branches\n", report.Network, report.Nodes, len(report.Branches))
		if len(report.Branches) == 0 {
			continue
		}
		fmt.Fprintln(tw, "BRANCH\tFROM\tTO\tWIRES\tFLOW\tRATING\tLOADING\t")
		for _, b := range report.Branches {
			rating, loading := "-", "-"
			if b.Rating != nil {
				rating = fmt.Sprintf("%.0f", *b.Rating)
				loading = fmt.Sprintf("%.1f%%", *b.Loading*100)
				if b.Overloaded {
					loading += " OVERLOAD"
				}
			}
			fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%.3f\t%s\t%s\t\n",
				b.ID, b.SourceCell, b.DestinationCell, len(b.Wires), b.Flow, rating, loading)
		}
	}
	return errors.Wrap(tw.Flush(), "write table")
}

func writeGraph(w io.Writer, id string, g *currentflow.Graph) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "network %s: %d nodes, %d branches\n", id, len(g.Nodes), len(g.Branches))
	fmt.Fprintln(tw, "NODE\tCELL\tVALENCE\tDEVICE\tDRAW\tGENERATION\t")
	for _, n := range g.Nodes {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%g\t%g\t\n",
			n.ID, n.Cell, n.Valence, n.Device, n.Power.Draw, n.Power.Generation)
	}

	if len(g.Branches) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "BRANCH\tSOURCE\tDESTINATION\tWIRES\tRATING\t")
		for _, b := range g.Branches {
			rating := "-"
			if !math.IsInf(b.Rating, 1) {
				rating = fmt.Sprintf("%.0f", b.Rating)
			}
			fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\t\n", b.ID, b.Source, b.Destination, len(b.Wires), rating)
		}
	}
	return errors.Wrap(tw.Flush(), "write graph")
}
