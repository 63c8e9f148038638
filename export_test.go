package mdxair

import (
	"github.com/mdxair/mdxair/olap"
)

func (s *PreparedStatement) Plan() *olap.Plan {
	return s.plan
}
