// =============================================================================
// EFD Reconcile - Graph Expander
// =============================================================================
//
// This module turns the raw reference maps produced by the loader into the
// closed structures the matching phase relies on:
//
//   1. CloseComplementary rewrites the complementary graph so that every
//      connected component becomes a complete mutual-reference clique. If
//      A-B and B-C were declared, A, B and C end up each listing the other
//      two, no matter how the edges were originally written down.
//   2. PropagateCargoNotes then pushes every document's cargo notes to all
//      of its complementary partners, so a note reachable through any chain
//      of complements is reachable in one hop.
//
// Both operations are idempotent. Traversal is iterative with an explicit
// stack; component sizes in real data are small but the input is not under
// our control.
//
// =============================================================================

package keygraph

import "github.com/sped-tools/efd-reconcile/internal/fiscal"

// =============================================================================
// COMPLEMENTARY CLOSURE
// =============================================================================

// CloseComplementary computes the transitive closure of the complementary
// graph.
//
// PARAMETERS:
//   - edges: The loaded complementary map. Edges may be one-directional;
//     they are symmetrized before traversal. The input is not modified.
//
// RETURNS:
//   - A new map in which every connected component of two or more keys is a
//     clique: each member lists all other members and never itself. Keys
//     with no partners are absent from the result.
//
// Nodes are visited in sorted key order, so contradictory source data (one
// key pulled into what should be two separate groups) always resolves the
// same way run to run.
func CloseComplementary(edges fiscal.KeyMap) fiscal.KeyMap {
	// STEP 1: Build a symmetric adjacency map.
	adjacency := make(fiscal.KeyMap, len(edges))
	for key, partners := range edges {
		for partner := range partners {
			adjacency.Insert(key, partner)
			adjacency.Insert(partner, key)
		}
	}

	// STEP 2: Walk the components and rewrite each as a clique.
	closed := make(fiscal.KeyMap, len(adjacency))
	visited := fiscal.NewKeySet()

	for _, start := range adjacency.SortedKeys() {
		if visited.Contains(start) {
			continue
		}

		component := collectComponent(adjacency, start, visited)
		if len(component) < 2 {
			// A key alone in its component has nothing to reference.
			continue
		}

		for _, member := range component {
			others := make(fiscal.KeySet, len(component)-1)
			for _, other := range component {
				if other != member {
					others.Add(other)
				}
			}
			closed[member] = others
		}
	}

	return closed
}

// collectComponent gathers every key reachable from start via a depth-first
// walk, marking them in visited.
func collectComponent(adjacency fiscal.KeyMap, start string, visited fiscal.KeySet) []string {
	stack := []string{start}
	visited.Add(start)

	var component []string
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		component = append(component, node)

		for neighbor := range adjacency[node] {
			if !visited.Contains(neighbor) {
				visited.Add(neighbor)
				stack = append(stack, neighbor)
			}
		}
	}

	return component
}

// =============================================================================
// CARGO-NOTE PROPAGATION
// =============================================================================

// PropagateCargoNotes unions every document's cargo-note set into the sets
// of all its complementary partners, in place.
//
// PARAMETERS:
//   - cargo: The cargo-note map to enrich.
//   - complementary: The CLOSED complementary map from CloseComplementary.
//     Closure is what makes one pass sufficient: every pair of documents in
//     a component is directly linked, so each owner's notes reach every
//     other member without chasing chains.
//
// Additions are staged in a side map while iterating and merged afterwards,
// so the input is never mutated mid-iteration.
func PropagateCargoNotes(cargo, complementary fiscal.KeyMap) {
	staged := make(fiscal.KeyMap)
	for owner, notes := range cargo {
		for partner := range complementary[owner] {
			staged.InsertAll(partner, notes)
		}
	}
	cargo.Merge(staged)
}

// =============================================================================
// REVERSE LOOKUP
// =============================================================================

// InvertCargoNotes builds the reverse cargo-note relation: for every note it
// answers "which transport bills carry this note".
//
// RETURNS:
//   - A new map from NF-e key to the set of CT-e keys listing it.
func InvertCargoNotes(cargo fiscal.KeyMap) fiscal.KeyMap {
	inverted := make(fiscal.KeyMap)
	for carrier, notes := range cargo {
		for note := range notes {
			inverted.Insert(note, carrier)
		}
	}
	return inverted
}
