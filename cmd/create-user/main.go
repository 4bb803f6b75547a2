// create-user provisions an account from the command line, for bootstrapping
// the first owner before the API has anyone who can log in.
//
// Usage: go run ./cmd/create-user -username admin -password secret123 \
//	-first Ada -last Cruz -role owner -department 1
package main

import (
	"context"
	"flag"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"billing-backend/internal/cache"
	"billing-backend/internal/core"
	"billing-backend/internal/db"
	"billing-backend/internal/logger"
)

func main() {
	first := flag.String("first", "", "first name")
	last := flag.String("last", "", "last name")
	username := flag.String("username", "", "login username")
	password := flag.String("password", "", "login password")
	role := flag.String("role", core.RoleStaff, "role: owner, manager, or staff")
	department := flag.Int("department", 0, "internal department id")
	flag.Parse()

	_ = godotenv.Load()
	logger.Setup()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()

	users := core.NewUserService(pool, cache.NewMemory(), logger.WithComponent("create-user"))
	user, err := users.Create(ctx, core.UserInput{
		FirstName:    *first,
		LastName:     *last,
		Username:     *username,
		Password:     *password,
		Role:         *role,
		DepartmentID: *department,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create user")
	}

	log.Info().Int("id", user.ID).Str("username", user.Username).Str("role", user.Role).Msg("user created")
}
