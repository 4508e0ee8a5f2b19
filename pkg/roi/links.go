package roi

import "fmt"

// LinkObject is one element of a "links" array. Rel and Href are pointers so
// a missing property can be told apart from an empty one.
type LinkObject struct {
	Rel  *string `json:"rel"  yaml:"rel"`
	Href *string `json:"href" yaml:"href"`
}

// Links maps a link relation to its URL.
type Links map[string]string

// BuildLinks keys link objects by relation. A repeated relation keeps the last
// href. Any element without rel or href fails the whole build.
func BuildLinks(objects []LinkObject) (Links, error) {
	links := make(Links, len(objects))

	for i, object := range objects {
		if object.Rel == nil || object.Href == nil {
			return nil, fmt.Errorf("%w: element %d", ErrMalformedLink, i)
		}

		links[*object.Rel] = *object.Href
	}

	return links, nil
}

// Get returns the URL for rel.
func (l Links) Get(rel string) (string, bool) {
	href, ok := l[rel]

	return href, ok
}

// Has reports whether rel is present with a non-empty URL.
func (l Links) Has(rel string) bool {
	return l[rel] != ""
}
