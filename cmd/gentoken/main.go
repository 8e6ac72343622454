// cmd/gentoken/main.go: prints a signed development token.
// Usage: go run ./cmd/gentoken -user rahimi -role supervisor
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"jourdash/internal/config"
	"jourdash/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func main() {
	user := flag.String("user", "dev", "username written to audit entries")
	role := flag.String("role", middleware.RoleClerk, "clerk | supervisor | admin")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.IsProduction() {
		fmt.Fprintln(os.Stderr, "refusing to issue tokens in production")
		os.Exit(1)
	}

	now := time.Now()
	claims := middleware.JWTClaims{
		UserID:   uuid.NewString(),
		Username: *user,
		Role:     *role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   *user,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.JWTExpirationHours) * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
