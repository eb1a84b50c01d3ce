package aql

// CollectBindVars returns the bind variables of the program Compile renders
// for the same tree: parent, context and one {args} group per node.
func CollectBindVars(q *Query, fieldName string, parent, context any) map[string]any {
	return collect(assignNames(q, fieldName), parent, context)
}

func collect(s *scope, parent, context any) map[string]any {
	vars := make(map[string]any, len(s.order)+2)
	vars["parent"] = parent
	vars["context"] = context
	for _, q := range s.order {
		var args any
		if len(q.Params.Args) > 0 {
			args = q.Params.Args
		}
		vars[BindVarName(s.names[q])] = map[string]any{"args": args}
	}
	return vars
}
