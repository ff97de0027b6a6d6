package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const RoleDoctor = "doctor"

// Caller is what clinic-desk needs to know about the signed-in user. The
// clinic backend verifies the token; clinic-desk only reads it to shape
// requests (a doctor never picks another doctor).
type Caller struct {
	Token  string
	UserID string
	Email  string
	Role   string
}

func (c Caller) IsDoctor() bool {
	return strings.EqualFold(c.Role, RoleDoctor)
}

type callerKey struct{}

// WithCaller stores the caller in ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// FromContext returns the caller stored by WithCaller.
func FromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// ParseCaller reads the claims of token without verifying its signature.
func ParseCaller(token string) (Caller, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Caller{}, fmt.Errorf("failed to parse token: %w", err)
	}

	c := Caller{Token: token}
	c.UserID = claimString(claims, "id", "user_id", "sub")
	c.Email = claimString(claims, "email")
	c.Role = claimString(claims, "role")
	return c, nil
}

func claimString(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		switch v := claims[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
