package auth

import "context"

// APIKeyInfo holds the identity resolved from a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	ActorID string
	Role    Role
	Name    string
	Email   string
}

// Actor converts the key info into the request actor.
func (k *APIKeyInfo) Actor() Actor {
	return Actor{
		ID:    k.ActorID,
		Role:  k.Role,
		Name:  k.Name,
		Email: k.Email,
	}
}

// Repository provides lookup of active API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
