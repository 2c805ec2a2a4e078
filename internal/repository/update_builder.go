package repository

import (
	"fmt"
	"strings"
)

// updateBuilder 构造部分更新语句
type updateBuilder struct {
	sets []string
	args []any
}

func (b *updateBuilder) set(column string, value any) {
	b.args = append(b.args, value)
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", column, len(b.args)))
}

func (b *updateBuilder) empty() bool {
	return len(b.sets) == 0
}

// build 生成 UPDATE 语句, updated_at 总是刷新
func (b *updateBuilder) build(table string, id int64) (string, []any) {
	sets := append(append([]string{}, b.sets...), "updated_at = NOW()")
	args := append(append([]any{}, b.args...), id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(sets, ", "), len(args))
	return query, args
}
