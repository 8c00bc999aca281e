//go:build !race

package auth

// Reset tokens never go through bcrypt, see reset_token.go.
func passwordHashCost() int {
	return 12
}
