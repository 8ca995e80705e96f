package explang

import "fmt"

// Resolve walks steps against root, the same value shape params carried in
// ValidateStepsAgainstParameters, and returns the value the dotted/indexed
// path denotes. It is used wherever a textual path needs an actual value
// rather than just a validation verdict: paramstyle resolves nested
// named-parameter references (e.g. "user.id") this way, through
// ResolvePath, once a binding descriptor has located the root parameter.
func Resolve(steps []Step, root map[string]any) (any, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("explang: empty step list")
	}

	var (
		cur  any
		path string
	)

	for idx, step := range steps {
		switch step.Kind {
		case StepIdentifier:
			path = step.Identifier

			v, ok := root[step.Identifier]
			if !ok {
				return nil, fmt.Errorf("explang: unknown root parameter %q", step.Identifier)
			}

			cur = v
		case StepMember:
			path = joinPath(path, step.Property)

			m, ok := cur.(map[string]any)
			if !ok {
				if step.Safe {
					return nil, nil
				}

				return nil, fmt.Errorf("explang: cannot access member %q on non-object %q", step.Property, path)
			}

			v, ok := m[step.Property]
			if !ok {
				if step.Safe {
					return nil, nil
				}

				return nil, fmt.Errorf("explang: unknown field %q on %q", step.Property, path)
			}

			cur = v
		case StepIndex:
			arr, ok := cur.([]any)
			if !ok {
				if step.Safe {
					return nil, nil
				}

				return nil, fmt.Errorf("explang: parameter %q is not indexable", path)
			}

			if step.Index < 0 || step.Index >= len(arr) {
				if step.Safe {
					return nil, nil
				}

				return nil, fmt.Errorf("explang: index %d out of range for %q (len %d)", step.Index, path, len(arr))
			}

			path = fmt.Sprintf("%s[%d]", path, step.Index)
			cur = arr[step.Index]
		}

		if idx == len(steps)-1 {
			break
		}
	}

	return cur, nil
}

// ResolvePath parses expr and resolves it against root in one call.
func ResolvePath(expr string, root map[string]any) (any, error) {
	steps, err := ParseSteps(expr, 1, 1)
	if err != nil {
		return nil, err
	}

	return Resolve(steps, root)
}
