package sqlast

import (
	"fmt"

	"github.com/sqlspec/sqlspec"
	"github.com/sqlspec/sqlspec/paramstyle"
)

// Render emits ast for targetDialect/targetStyle and returns the ordered
// Bindings Normalize needs to permute caller-supplied values into the
// target style's shape, per spec.md §4.2.
//
// Merge/Upsert compilation is dialect-specific: a capability that does not
// advertise FeatureMerge for a KindMerge AST surfaces an unsupported-
// operation error here, at compile time, before execution — spec.md §4.2
// "Merge/Upsert" edge case.
func Render(ast *AST, targetDialect sqlspec.Dialect, targetStyle sqlspec.ParamStyle, cap sqlspec.DriverCapability) (string, []sqlspec.Binding, error) {
	if ast.Kind == KindMerge && !cap.Supports(sqlspec.FeatureMerge) {
		return "", nil, sqlspec.NewError(sqlspec.KindUnsupportedOperation,
			fmt.Sprintf("dialect %s cannot express MERGE/UPSERT", targetDialect), sqlspec.ErrUnsupportedOperation)
	}

	if !cap.SupportsStyle(targetStyle) {
		return "", nil, sqlspec.NewError(sqlspec.KindUnsupportedOperation,
			fmt.Sprintf("dialect %s does not support parameter style %s", targetDialect, targetStyle), sqlspec.ErrUnknownParamStyle)
	}

	sql, bindings, err := paramstyle.Rewrite(ast.Raw, targetStyle)
	if err != nil {
		return "", nil, err
	}

	return sql, bindings, nil
}
