package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pipelined.dev/modular"
)

func graphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print flows of the patch in visit order",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			printFlow(cmd.OutOrStdout(), s.store, s.patch.voice, "voice")
			printFlow(cmd.OutOrStdout(), s.store, s.patch.flow, "patch")
			return nil
		},
	}
}

func printFlow(w io.Writer, s *modular.Store, id modular.FlowID, name string) {
	f := s.Flow(id)
	fmt.Fprintf(w, "flow %d (%s): %d nodes, %d edges\n", id, name, f.NodeCount(), f.EdgeCount())
	for _, ix := range f.VisitOrder() {
		fmt.Fprintf(w, "  node %d: %v\n", ix, f.Node(ix))
		for _, e := range f.Edges() {
			source, target := f.Endpoints(e)
			if source != ix {
				continue
			}
			edge := f.Edge(e)
			fmt.Fprintf(w, "    edge %d: out %d -> node %d in %d %v\n", e, edge.OutputNo, target, edge.InputNo, edge.Type)
		}
	}
}
