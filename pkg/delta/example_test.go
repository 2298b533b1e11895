package delta_test

import (
	"fmt"

	"github.com/matzehuels/graphreveal/pkg/delta"
	"github.com/matzehuels/graphreveal/pkg/graph"
)

func ExampleComputer_Compute() {
	m := graph.NewModel(nil)
	m.Ingest(graph.Dataset{
		Nodes: []graph.Node{
			{ID: "Person", Visible: true},
			{ID: "Student"},
			{ID: "Teacher", Visible: true},
		},
		Edges: []graph.Edge{
			{Source: "Person", Target: "Student"},
			{Source: "Person", Target: "Teacher", Visible: true},
		},
	})
	c := delta.New(m, nil)

	d := c.Compute("Person", graph.ModeChildren)
	fmt.Println(d.Direction, d.NodesToShow, d.EdgesToShow)

	m.ApplyDelta(d)
	d = c.Compute("Person", graph.ModeChildren)
	fmt.Println(d.Direction, d.NodesToHide, d.EdgesToHide)
	// Output:
	// expand [Student] [Person->Student]
	// collapse [Student Teacher] [Person->Student Person->Teacher]
}
