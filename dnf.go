package addrscan

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm/clause"
)

type (
	tConjunct struct {
		Column   string
		Value    any
		Operator Operator
	}

	tDisjunct []tConjunct

	// tDNF is a keyset condition in disjunctive normal form: disjuncts are
	// joined by OR, the conjuncts inside each disjunct by AND.
	//
	//	DNF = X1 OR X2 ... OR Xn, where Xi = Ai1 AND Ai2 ... AND Aim.
	tDNF []tDisjunct
)

// toGORMExpression renders the conjunct as "Column Operator ?".
//
//	tConjunct{Column: "id", Operator: ">", Value: "w_00000001"} -> id > ?
func (c tConjunct) toGORMExpression() clause.Expression {
	sqlClause, arg := c.toSQLClause()

	return clause.Expr{
		SQL:  sqlClause,
		Vars: []any{arg},
	}
}

// toSQLClause returns ("Column Operator ?", value).
func (c tConjunct) toSQLClause() (string, driver.Value) {
	return fmt.Sprintf("%s %s ?", c.Column, c.Operator), bindValue(c.Value)
}

// bindValue undoes the widening encoding/json applies to cursor values:
// integral numbers come back as float64 and must be bound as integers to
// compare correctly against INTEGER columns such as address_index. Strings,
// including timestamp-looking ones, are bound untouched because every
// timestamp in wallet_addresses is stored as TEXT.
func bindValue(v any) any {
	switch vt := v.(type) {
	case float64:
		if vt == math.Trunc(vt) && math.Abs(vt) < 1<<53 {
			return int64(vt)
		}

		return vt
	case []byte:
		return string(vt)
	default:
		return v
	}
}

// toGORMExpression renders the disjunct as "K1 AND K2 AND K3".
func (d tDisjunct) toGORMExpression() clause.Expression {
	andExpressions := make([]clause.Expression, 0, len(d))
	for _, conjunct := range d {
		andExpressions = append(andExpressions, conjunct.toGORMExpression())
	}

	if len(andExpressions) == 1 {
		return andExpressions[0]
	} else if len(andExpressions) > 1 {
		return clause.And(andExpressions...)
	}

	return nil
}

// toSQLClause renders the disjunct as "(K1 AND K2 AND K3)" along with the
// placeholder values.
//
//	tDisjunct{
//		{Column: "wallet_type", Operator: "=", Value: "api"},
//		{Column: "id", Operator: ">", Value: "w_00000001"},
//	}
//
// yields ("(wallet_type = ? AND id > ?)", ["api", "w_00000001"]).
func (d tDisjunct) toSQLClause() (string, []driver.Value) {
	andClauses := make([]string, 0, len(d))
	andValues := make([]driver.Value, 0, len(d))

	for _, conjunct := range d {
		andClause, andValue := conjunct.toSQLClause()
		andClauses = append(andClauses, andClause)
		andValues = append(andValues, andValue)
	}

	if len(andClauses) >= 1 {
		return fmt.Sprintf("(%s)", strings.Join(andClauses, " AND ")), andValues
	}

	return "", nil
}

func (d tDNF) toGORMExpression() clause.Expression {
	orExpressions := make([]clause.Expression, 0, len(d))

	for _, disjunct := range d {
		andExpressions := disjunct.toGORMExpression()
		if andExpressions == nil {
			continue
		}

		orExpressions = append(orExpressions, andExpressions)
	}

	if len(orExpressions) == 1 {
		return orExpressions[0]
	} else if len(orExpressions) > 1 {
		return clause.Or(orExpressions...)
	}

	return nil
}

// toSQLClause joins the rendered disjuncts with OR. An empty DNF matches
// everything and renders as TRUE.
//
//	tDNF{
//		{{Column: "address_index", Operator: ">", Value: 10}},
//		{{Column: "address_index", Operator: "=", Value: 10}, {Column: "id", Operator: ">", Value: "w_1"}},
//	}
//
// yields ("((address_index > ?) OR (address_index = ? AND id > ?))", [10, 10, "w_1"]).
func (d tDNF) toSQLClause() (string, []driver.Value) {
	orClauses := make([]string, 0, len(d))
	values := make([]driver.Value, 0, len(d))

	for _, disjunct := range d {
		orClause, orValues := disjunct.toSQLClause()
		if orClause == "" {
			continue
		}

		orClauses = append(orClauses, orClause)
		values = append(values, orValues...)
	}

	if len(orClauses) >= 1 {
		return fmt.Sprintf("(%s)", strings.Join(orClauses, " OR ")), values
	}

	return "TRUE", nil
}
