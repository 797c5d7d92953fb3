package format

// DerefString safely dereferences a *string and returns a default value if nil.
func DerefString(s *string, defaultVal string) string {
	if s != nil && *s != "" {
		return *s
	}
	return defaultVal
}

// DerefInt safely dereferences a *int and returns a default value if nil.
func DerefInt(i *int, defaultVal int) int {
	if i != nil {
		return *i
	}
	return defaultVal
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
