package script

import (
	"strings"

	"github.com/xwb1989/sqlparser"
)

// Kind classifies a statement by its leading keyword: select, insert, ddl, set, unknown...
// Only the first word is inspected, so dialect-specific statements still classify.
func Kind(sql string) string {
	return strings.ToLower(sqlparser.StmtType(sqlparser.Preview(sql)))
}
