package engine

import (
	"sort"
	"strconv"

	"github.com/awalterschulze/gographviz"
)

// DOT renders the compiled topology in Graphviz DOT form. Conditional edges
// are labelled with their route names; the terminal marker is drawn as a
// doublecircle.
func (e *Executor[S]) DOT() (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName(e.name); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}

	for _, name := range e.order {
		attrs := map[string]string{"shape": "box"}
		if name == e.entry {
			attrs["style"] = "bold"
		}
		if err := g.AddNode(e.name, name, attrs); err != nil {
			return "", err
		}
	}
	if err := g.AddNode(e.name, End, map[string]string{"shape": "doublecircle", "label": strconv.Quote("end")}); err != nil {
		return "", err
	}

	for _, from := range e.order {
		spec, ok := e.edges[from]
		if !ok {
			continue
		}
		if !spec.conditional() {
			if err := g.AddEdge(from, spec.to, true, nil); err != nil {
				return "", err
			}
			continue
		}
		for _, route := range sortedRoutes(spec.targets) {
			attrs := map[string]string{"label": strconv.Quote(string(route))}
			if err := g.AddEdge(from, spec.targets[route], true, attrs); err != nil {
				return "", err
			}
		}
	}
	return g.String(), nil
}

func sortedRoutes(targets map[Route]string) []Route {
	routes := make([]Route, 0, len(targets))
	for route := range targets {
		routes = append(routes, route)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i] < routes[j] })
	return routes
}
