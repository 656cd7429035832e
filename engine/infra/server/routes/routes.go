package routes

import "fmt"

// Version is the API version used in routing.
const Version = "v1"

// Base returns the versioned API base path (e.g., "/api/v1").
func Base() string {
	return fmt.Sprintf("/api/%s", Version)
}

// HealthVersioned returns the versioned health path (e.g., "/api/v1/health").
func HealthVersioned() string {
	return Base() + "/health"
}

// Articles returns the article lookup base path (e.g., "/api/v1/articles").
func Articles() string {
	return Base() + "/articles"
}

// Search returns the vector search path (e.g., "/api/v1/search").
func Search() string {
	return Base() + "/search"
}

// Families returns the regulation family listing path (e.g., "/api/v1/families").
func Families() string {
	return Base() + "/families"
}
