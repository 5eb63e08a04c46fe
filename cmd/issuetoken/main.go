// Command issuetoken mints an access token for the clinicdesk API. Accounts
// live outside this service, so operators use it to hand out credentials.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/config"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/auth"
)

func main() {
	_ = godotenv.Load()

	role := flag.String("role", string(domain.RoleDoctor), "admin, doctor or receptionist")
	doctorID := flag.String("doctor", "", "doctor id the token is scoped to")
	userID := flag.String("user", "", "subject; a random id when empty")
	ttl := flag.Duration("ttl", 0, "token lifetime; JWT_ACCESS_TTL when zero")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fail("JWT_SECRET is not set")
	}

	cfg := config.JWTConfig{
		Secret:         secret,
		AccessTokenTTL: 12 * time.Hour,
		Issuer:         "clinicdesk-api",
	}
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		cfg.Issuer = v
	}
	if v, err := time.ParseDuration(os.Getenv("JWT_ACCESS_TTL")); err == nil && v > 0 {
		cfg.AccessTokenTTL = v
	}
	if *ttl > 0 {
		cfg.AccessTokenTTL = *ttl
	}

	if *userID == "" {
		*userID = uuid.NewString()
	}

	pair, err := auth.NewJWTManager(cfg).GenerateAccessToken(&domain.Claims{
		UserID:   *userID,
		Role:     domain.Role(*role),
		DoctorID: *doctorID,
	})
	if err != nil {
		fail(err.Error())
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(pair)
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, "issuetoken:", msg)
	os.Exit(1)
}
