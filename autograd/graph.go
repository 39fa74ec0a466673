package autograd

/*
Backward takes the root of a computation graph, usually a loss, sets its
gradient to one and propagates it to every value the root was computed
from, accumulating on their Grad fields.

Gradients accumulate: parameters keep the sum of the gradients of every
Backward call since they were last zeroed.
*/
func Backward(root Node) {
	topo := topologicalOrder(root)
	switch r := root.(type) {
	case *Scalar:
		r.Grad = 1
	case *Vec:
		for i := range r.Grad {
			r.Grad[i] = 1
		}
	}
	for i := len(topo) - 1; i >= 0; i-- {
		topo[i].backward()
	}
}

// topologicalOrder returns the nodes reachable from root with every node
// after all of its inputs. It walks the graph with an explicit stack, as
// recurrent graphs get too deep for comfortable recursion.
func topologicalOrder(root Node) []Node {
	type frame struct {
		n    Node
		next int
	}
	var topo []Node
	visited := map[Node]bool{root: true}
	stack := []frame{{n: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		kids := top.n.children()
		if top.next < len(kids) {
			c := kids[top.next]
			top.next++
			if !visited[c] {
				visited[c] = true
				stack = append(stack, frame{n: c})
			}
			continue
		}
		topo = append(topo, top.n)
		stack = stack[:len(stack)-1]
	}
	return topo
}

// ZeroGrad resets the gradients of the given vectors.
func ZeroGrad(params []*Vec) {
	for _, p := range params {
		for i := range p.Grad {
			p.Grad[i] = 0
		}
	}
}
