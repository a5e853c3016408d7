// Command createoperator adds a box office account, typically the first
// ADMIN of a fresh installation.
//
//	createoperator -email admin@example.com -role ADMIN
//
// The password is read from OPERATOR_PASSWORD.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-box-office/internal/config"
	"github.com/iliyamo/cinema-box-office/internal/database"
	"github.com/iliyamo/cinema-box-office/internal/logger"
	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/repository"
	"github.com/iliyamo/cinema-box-office/internal/utils"
)

const minPasswordLen = 8

func main() {
	email := flag.String("email", "", "operator email")
	role := flag.String("role", model.RoleCashier, "ADMIN or CASHIER")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	r, err := parseRole(*role)
	if err != nil {
		log.Fatal(err)
	}
	password := os.Getenv("OPERATOR_PASSWORD")
	if len(password) < minPasswordLen {
		log.Fatalf("OPERATOR_PASSWORD must be at least %d characters", minPasswordLen)
	}
	if !strings.Contains(*email, "@") {
		log.Fatal("-email is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	defer db.Close()

	hash, err := utils.HashPassword(password, cfg.BcryptCost)
	if err != nil {
		log.WithError(err).Fatal("hash password")
	}
	id, err := repository.NewOperatorRepo(db).Create(ctx, *email, hash, r)
	if errors.Is(err, repository.ErrEmailExists) {
		log.WithField("email", *email).Fatal("operator already exists")
	}
	if err != nil {
		log.WithError(err).Fatal("create operator")
	}
	log.WithFields(logrus.Fields{"id": id, "email": *email, "role": r}).Info("operator created")
}

func parseRole(s string) (string, error) {
	switch r := strings.ToUpper(strings.TrimSpace(s)); r {
	case model.RoleAdmin, model.RoleCashier:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}
