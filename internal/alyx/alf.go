package alyx

import (
	"regexp"
	"strings"
)

// DatasetName is a parsed ALF file name of the form
// [_namespace_]object.attribute[.extra...].extension.
type DatasetName struct {
	Namespace string
	Object    string
	Attribute string
	Extra     []string
	Extension string
}

var namespacePattern = regexp.MustCompile(`^_([A-Za-z0-9]+)_(.+)$`)

// ParseDatasetName splits an ALF file name into its parts. It reports false
// when name does not have at least object, attribute and extension.
func ParseDatasetName(name string) (DatasetName, bool) {
	parts := strings.Split(name, ".")
	if len(parts) < 3 {
		return DatasetName{}, false
	}
	for _, p := range parts {
		if p == "" {
			return DatasetName{}, false
		}
	}

	dn := DatasetName{
		Object:    parts[0],
		Attribute: parts[1],
		Extension: parts[len(parts)-1],
	}
	if m := namespacePattern.FindStringSubmatch(dn.Object); m != nil {
		dn.Namespace, dn.Object = m[1], m[2]
	}
	if len(parts) > 3 {
		dn.Extra = parts[2 : len(parts)-1]
	}
	return dn, true
}
