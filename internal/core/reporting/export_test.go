// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reporting

var (
	BuildLoansQuery    = buildLoansQuery
	BuildActivityQuery = buildActivityQuery
)
