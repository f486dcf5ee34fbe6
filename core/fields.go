package core

// Purpose tells why a list of fields or rows is requested.
type Purpose string

const (
	PurposeList   Purpose = "list"
	PurposeCreate Purpose = "create"
	PurposeModify Purpose = "modify"
)

// Field describes an entity attribute shown or edited from the CLI.
// Name doubles as the filter and ordering key understood by repositories.
type Field struct {
	Name  string
	Label string
}

// FieldMatch is an equality filter on a Field.
type FieldMatch struct {
	Field string
	Value string
}

// Without returns fields minus the named ones, order kept.
func Without(fields []Field, names ...string) []Field {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if !skip[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

// HasField reports whether name is in fields.
func HasField(fields []Field, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// ListOptions are the user driven parts of a listing.
type ListOptions struct {
	ShowArchived bool
	Match        []FieldMatch
	Ordering     []DBOrdering
}
