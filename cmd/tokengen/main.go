// Command tokengen mints a signed role token for calling the API locally.
//
//	go run ./cmd/tokengen -role dispatcher -sub ops@example.com
package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"fleetflow/internal/auth"
	"fleetflow/internal/config"
)

func main() {
	role := flag.String("role", string(auth.RoleManager), "manager, dispatcher, safety_officer or financial_analyst")
	subject := flag.String("sub", "local-dev", "token subject")
	flag.Parse()

	cfg := config.Load()

	tokens, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	if err != nil {
		log.WithError(err).Fatal("set JWT_SECRET in the environment or .env")
	}

	token, err := tokens.GenerateToken(*subject, auth.Role(*role))
	if err != nil {
		log.WithError(err).Fatal("failed to mint token")
	}

	fmt.Fprintln(os.Stdout, token)
}
