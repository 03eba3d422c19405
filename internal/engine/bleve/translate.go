package bleve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/osfio/osfsearch/internal/engine"
)

// translated is a DSL query converted to bleve.
type translated struct {
	q query.Query
	// boostField is set when a function_score multiplies relevance by a field.
	boostField string
}

// translate converts the supported DSL subset. Unknown clauses are rejected
// the way the cluster rejects them: as a 400 parsing_exception.
func translate(clause map[string]any) (translated, error) {
	var t translated
	q, err := t.clause(clause)
	if err != nil {
		return translated{}, err
	}
	t.q = q
	return t, nil
}

func (t *translated) clause(c map[string]any) (query.Query, error) {
	if len(c) == 0 {
		return bleve.NewMatchAllQuery(), nil
	}
	if len(c) != 1 {
		return nil, parsingError("query clause must have exactly one key, got %d", len(c))
	}
	for name, raw := range c {
		body, _ := raw.(map[string]any)
		switch name {
		case "match_all":
			return bleve.NewMatchAllQuery(), nil
		case "match_none":
			return bleve.NewMatchNoneQuery(), nil
		case "query_string":
			return queryString(body)
		case "function_score":
			return t.functionScore(body)
		case "bool":
			return t.boolean(body)
		case "term":
			return term(body)
		case "terms":
			return terms(body)
		case "ids":
			return ids(body)
		case "match":
			return match(body)
		default:
			return nil, parsingError("unknown query [%s]", name)
		}
	}
	return nil, parsingError("empty query clause")
}

func (t *translated) functionScore(body map[string]any) (query.Query, error) {
	if fvf, ok := body["field_value_factor"].(map[string]any); ok {
		if f, ok := fvf["field"].(string); ok {
			t.boostField = f
		}
	}
	inner, _ := body["query"].(map[string]any)
	return t.clause(inner)
}

func (t *translated) boolean(body map[string]any) (query.Query, error) {
	bq := bleve.NewBooleanQuery()
	hasPositive := false
	for _, key := range []string{"must", "filter", "should", "must_not"} {
		clauses, err := clauseList(body[key])
		if err != nil {
			return nil, err
		}
		for _, c := range clauses {
			q, err := t.clause(c)
			if err != nil {
				return nil, err
			}
			switch key {
			case "must", "filter":
				bq.AddMust(q)
				hasPositive = true
			case "should":
				bq.AddShould(q)
				hasPositive = true
			case "must_not":
				bq.AddMustNot(q)
			}
		}
	}
	if !hasPositive {
		bq.AddMust(bleve.NewMatchAllQuery())
	}
	return bq, nil
}

// clauseList accepts a single clause or an array of clauses.
func clauseList(v any) ([]map[string]any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return []map[string]any{x}, nil
	case []any:
		out := make([]map[string]any, 0, len(x))
		for _, e := range x {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, parsingError("bool clause must be an object")
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, parsingError("bool clause must be an object or array")
	}
}

func single(body map[string]any, kind string) (string, any, error) {
	if len(body) != 1 {
		return "", nil, parsingError("[%s] query expects exactly one field", kind)
	}
	for field, v := range body {
		if m, ok := v.(map[string]any); ok {
			if inner, ok := m["value"]; ok {
				return field, inner, nil
			}
			if inner, ok := m["query"]; ok {
				return field, inner, nil
			}
		}
		return field, v, nil
	}
	return "", nil, parsingError("[%s] query is empty", kind)
}

func term(body map[string]any) (query.Query, error) {
	field, v, err := single(body, "term")
	if err != nil {
		return nil, err
	}
	return valueQuery(field, v)
}

func terms(body map[string]any) (query.Query, error) {
	field, v, err := single(body, "terms")
	if err != nil {
		return nil, err
	}
	values, ok := v.([]any)
	if !ok {
		return nil, parsingError("[terms] query expects an array for [%s]", field)
	}
	if len(values) == 0 {
		return bleve.NewMatchNoneQuery(), nil
	}
	qs := make([]query.Query, 0, len(values))
	for _, val := range values {
		q, err := valueQuery(field, val)
		if err != nil {
			return nil, err
		}
		qs = append(qs, q)
	}
	return bleve.NewDisjunctionQuery(qs...), nil
}

func valueQuery(field string, v any) (query.Query, error) {
	switch x := v.(type) {
	case string:
		q := bleve.NewTermQuery(x)
		q.SetField(field)
		return q, nil
	case bool:
		q := bleve.NewBoolFieldQuery(x)
		q.SetField(field)
		return q, nil
	case float64:
		inclusive := true
		q := bleve.NewNumericRangeInclusiveQuery(&x, &x, &inclusive, &inclusive)
		q.SetField(field)
		return q, nil
	default:
		return nil, parsingError("unsupported value for [%s]", field)
	}
}

func ids(body map[string]any) (query.Query, error) {
	values, ok := body["values"].([]any)
	if !ok {
		return nil, parsingError("[ids] query expects [values]")
	}
	docIDs := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, parsingError("[ids] values must be strings")
		}
		docIDs = append(docIDs, s)
	}
	return bleve.NewDocIDQuery(docIDs), nil
}

func match(body map[string]any) (query.Query, error) {
	field, v, err := single(body, "match")
	if err != nil {
		return nil, err
	}
	s, ok := v.(string)
	if !ok {
		return nil, parsingError("[match] query expects text for [%s]", field)
	}
	q := bleve.NewMatchQuery(s)
	q.SetField(field)
	return q, nil
}

// queryString rewrites Lucene syntax into bleve's query string syntax and
// parses it eagerly, so syntax errors surface as parse_exception.
func queryString(body map[string]any) (query.Query, error) {
	s, _ := body["query"].(string)
	op, _ := body["default_operator"].(string)
	rewritten := rewriteQueryString(s, strings.EqualFold(op, "AND"))
	if rewritten == "" {
		return bleve.NewMatchAllQuery(), nil
	}
	qsq := bleve.NewQueryStringQuery(rewritten)
	if _, err := qsq.Parse(); err != nil {
		return nil, &engine.Error{
			Op:     engine.OpSearch,
			Status: 400,
			Type:   engine.TypeParse,
			Reason: fmt.Sprintf("Failed to parse query [%s]: %v", s, err),
		}
	}
	return qsq, nil
}

// rewriteQueryString maps AND/OR/NOT operators onto bleve's +/- prefixes.
// With requireAll every plain term becomes mandatory. Fuzzy markers on
// wildcard terms are dropped since bleve cannot combine the two.
func rewriteQueryString(s string, requireAll bool) string {
	tokens := tokenize(s)
	if len(tokens) == 1 && tokens[0] == "*" {
		return ""
	}
	hasAnd, hasOr := false, false
	for _, tok := range tokens {
		switch tok {
		case "AND", "&&":
			hasAnd = true
		case "OR", "||":
			hasOr = true
		}
	}
	mandatory := (requireAll || hasAnd) && !hasOr

	out := make([]string, 0, len(tokens))
	negate := false
	for _, tok := range tokens {
		switch tok {
		case "AND", "&&", "OR", "||":
			continue
		case "NOT", "!":
			negate = true
			continue
		}
		if strings.Contains(tok, "*") {
			tok = strings.TrimSuffix(tok, "~")
		}
		switch {
		case negate:
			tok = "-" + strings.TrimLeft(tok, "+-")
			negate = false
		case mandatory && !strings.HasPrefix(tok, "+") && !strings.HasPrefix(tok, "-"):
			tok = "+" + tok
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

// tokenize splits on whitespace outside double quotes. Escaped characters
// are kept as is.
func tokenize(s string) []string {
	var (
		out     []string
		cur     strings.Builder
		quoted  bool
		escaped bool
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			cur.WriteRune(r)
			escaped = true
		case r == '"':
			cur.WriteRune(r)
			quoted = !quoted
		case !quoted && (r == ' ' || r == '\t' || r == '\n'):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// sortOrder converts a DSL sort into bleve sort keys.
func sortOrder(v any) ([]string, error) {
	var entries []any
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []any:
		entries = x
	default:
		entries = []any{x}
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		switch x := e.(type) {
		case string:
			keys = append(keys, sortKey(x, x == "_score"))
		case map[string]any:
			fields := make([]string, 0, len(x))
			for f := range x {
				fields = append(fields, f)
			}
			sort.Strings(fields)
			for _, f := range fields {
				order := ""
				switch o := x[f].(type) {
				case string:
					order = o
				case map[string]any:
					order, _ = o["order"].(string)
				}
				desc := strings.EqualFold(order, "desc") || (order == "" && f == "_score")
				keys = append(keys, sortKey(f, desc))
			}
		default:
			return nil, parsingError("malformed sort")
		}
	}
	return keys, nil
}

func sortKey(field string, desc bool) string {
	if desc {
		return "-" + field
	}
	return field
}

func parsingError(format string, args ...any) *engine.Error {
	return badRequest(engine.OpSearch, engine.TypeParsing, fmt.Sprintf(format, args...))
}
