package tracing

import "strings"

// Filters holds the user's filter selection. A key absent from Values, or
// mapped to an empty string, places no constraint.
type Filters struct {
	Query  string            `json:"query"`
	Values map[string]string `json:"values"`
}

// Active reports whether any constraint is set.
func (f Filters) Active() bool {
	if strings.TrimSpace(f.Query) != "" {
		return true
	}
	for _, v := range f.Values {
		if v != "" {
			return true
		}
	}
	return false
}

// ActiveFor reports whether any constraint the server will see is set: the
// query or a value for one of keys. Values under other names are ignored
// because queryBody never sends them.
func (f Filters) ActiveFor(keys []FilterKey) bool {
	if strings.TrimSpace(f.Query) != "" {
		return true
	}
	for _, key := range keys {
		if _, ok := f.Get(key.Name); ok {
			return true
		}
	}
	return false
}

// Get returns the selected value for name.
func (f Filters) Get(name string) (string, bool) {
	v, ok := f.Values[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (f Filters) clone() Filters {
	out := Filters{Query: f.Query, Values: make(map[string]string, len(f.Values))}
	for k, v := range f.Values {
		out.Values[k] = v
	}
	return out
}

// queryBody builds the paged query body. Every delegate filter parameter is
// present, null when unconstrained; query is omitted when empty.
func queryBody(page, pageSize int, f Filters, keys []FilterKey) map[string]any {
	body := map[string]any{
		"page":      page,
		"page_size": pageSize,
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		body["query"] = q
	}
	for _, key := range keys {
		param := key.Param
		if param == "" {
			param = key.Name
		}
		if v, ok := f.Get(key.Name); ok {
			body[param] = v
		} else {
			body[param] = nil
		}
	}
	return body
}
