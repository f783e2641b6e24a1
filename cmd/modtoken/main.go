// Command modtoken prints a bearer token signed with JWT_SECRET for local
// testing of moderator endpoints.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mwork/community-engine/internal/config"
	"github.com/mwork/community-engine/internal/pkg/jwt"
)

func main() {
	userID := flag.String("user", "local-moderator", "user id placed in the token")
	role := flag.String("role", jwt.RoleModerator, "role claim: member, moderator or admin")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.Load()
	if cfg.IsProduction() {
		fmt.Fprintln(os.Stderr, "refusing to mint tokens with ENV=production")
		os.Exit(1)
	}

	switch *role {
	case jwt.RoleMember, jwt.RoleModerator, jwt.RoleAdmin:
	default:
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}

	token, err := jwt.NewService(cfg.JWTSecret, *ttl).Issue(*userID, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
