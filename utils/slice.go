package utils

// StringInSlice returns a boolean value if a particular
// string has been found in a slice of strings.
func StringInSlice(a string, list []string) bool {
	for _, b := range list {
		if b == a {
			return true
		}
	}
	return false
}

// UniqueStrings returns list without empty strings and without repeated
// entries. The order of first occurrence is kept.
func UniqueStrings(list []string) []string {
	res := make([]string, 0, len(list))
	for _, s := range list {
		if s == "" || StringInSlice(s, res) {
			continue
		}
		res = append(res, s)
	}
	return res
}
