package pkg

func ToPtr[T any](v T) *T {
	return &v
}

func FromPtrOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}
