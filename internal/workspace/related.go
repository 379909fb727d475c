package workspace

// markOutdatedAndPropagate implements spec.md §4.8's related-files
// propagation: changed marks the start of a BFS over the transitive
// "includes" closure (files that include changed, directly or through a
// chain of other includes) plus every source file that references a global
// variable declared in any file discovered along the way. Every file
// reached is marked outdated in one batch.
func (o *Orchestrator) markOutdatedAndPropagate(changed string) error {
	touched := map[string]bool{changed: true}
	frontier := []string{changed}

	for len(frontier) > 0 {
		var next []string

		for _, f := range frontier {
			includers, err := o.st.IncludingFilesOf(f)
			if err != nil {
				return err
			}

			for _, inc := range includers {
				if !touched[inc] {
					touched[inc] = true
					next = append(next, inc)
				}
			}

			varIDs, err := o.st.GlobalVariablesDeclaredIn(f)
			if err != nil {
				return err
			}

			for _, vid := range varIDs {
				refs, err := o.st.SourceFilesReferencing(vid)
				if err != nil {
					return err
				}

				for _, rf := range refs {
					if !touched[rf] {
						touched[rf] = true
						next = append(next, rf)
					}
				}
			}
		}

		frontier = next
	}

	paths := make([]string, 0, len(touched))
	for f := range touched {
		paths = append(paths, f)
	}

	return o.st.MarkOutdated(paths)
}
