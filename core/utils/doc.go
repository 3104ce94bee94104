// Package utils provides common utility functions for the receipt engine.
// It includes helper functions for type conversion of loosely typed payload
// values and other shared logic that doesn't fit into domain-specific
// packages.
package utils
