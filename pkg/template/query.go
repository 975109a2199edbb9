package template

import "strings"

// QueryPair is one key=value entry of a query template. The key is
// literal; the value may contain placeholders.
type QueryPair struct {
	Key   string
	Value *Pattern
}

// ParseQuery splits a query template such as "sort=[?sort]&page=[page]"
// into its pairs. A leading "?" is ignored, as are empty entries.
func ParseQuery(tmpl string) ([]QueryPair, error) {
	return ParseQueryWith(tmpl, nil)
}

// ParseQueryWith is like ParseQuery and compiles each value with
// CompileWith.
func ParseQueryWith(tmpl string, optional func(name string) bool) ([]QueryPair, error) {
	tmpl = strings.TrimPrefix(tmpl, "?")
	if tmpl == "" {
		return nil, nil
	}
	// Duplicate names across pairs are reported for the whole template.
	if _, err := Parse(tmpl); err != nil {
		return nil, err
	}

	var pairs []QueryPair
	for _, entry := range strings.Split(tmpl, "&") {
		if entry == "" {
			continue
		}
		key, value, _ := strings.Cut(entry, "=")
		pat, err := CompileWith(value, QueryContext, optional)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, QueryPair{Key: key, Value: pat})
	}
	return pairs, nil
}

// JoinQuery concatenates query templates with "&", dropping empty parts and
// leading "?" markers.
func JoinQuery(parts ...string) string {
	var kept []string
	for _, p := range parts {
		p = strings.Trim(strings.TrimPrefix(p, "?"), "&")
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "&")
}
