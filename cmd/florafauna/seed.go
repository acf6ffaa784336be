package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/florafauna/internal/catalog"
	"github.com/pavelanni/florafauna/internal/model"
	"github.com/pavelanni/florafauna/internal/store"
)

func runSeed(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	driver, err := store.ParseDriver(v.GetString("db-driver"))
	if err != nil {
		return err
	}
	dsn := v.GetString("db-admin")
	if dsn == "" {
		dsn = v.GetString("db")
	}
	db, err := store.Open(ctx, driver, dsn, v.GetBool("db-migrate"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	files := v.GetStringSlice("file")
	email := v.GetString("admin-email")
	if len(files) == 0 && email == "" {
		return errors.New("nothing to do: pass --file and/or --admin-email")
	}

	if err := loadSpecies(ctx, db, files); err != nil {
		return fmt.Errorf("load species: %w", err)
	}
	if email != "" {
		if err := seedAdmin(ctx, db, email, v.GetString("admin-password")); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}
	return nil
}

// loadSpecies imports each species file once. A file whose content changed
// since its last import is skipped so existing rows are never rewritten.
func loadSpecies(ctx context.Context, db *store.Store, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		hash := sha256sum(data)
		storedHash, err := db.GetImportedFileHash(ctx, path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}

		if storedHash == hash {
			slog.Info("species file unchanged, skipping", "path", path)
			continue
		}
		if storedHash != "" {
			slog.Warn("species file changed since last import, skipping", "path", path)
			continue
		}

		var records []model.SpeciesImport
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		for i := range records {
			records[i].Species = catalog.Normalize(records[i].Species)
			if len(records[i].ScientificName) < 2 {
				return fmt.Errorf("parse %s: record %d has no scientific_name", path, i)
			}
		}

		n, err := db.ImportSpecies(ctx, records)
		if err != nil {
			return fmt.Errorf("import species from %s: %w", path, err)
		}
		if err := db.SetImportedFileHash(ctx, path, hash); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
		slog.Info("imported species", "path", path, "records", len(records), "inserted", n)
	}
	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func seedAdmin(ctx context.Context, db *store.Store, email, password string) error {
	existing, err := db.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		slog.Info("admin user already exists", "email", existing.Email)
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or FLORAFAUNA_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	id, err := db.CreateUser(ctx, model.User{
		Email:         email,
		PasswordHash:  string(hash),
		Role:          model.UserRoleAdmin,
		EmailVerified: true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded admin user", "id", id, "email", email)
	return nil
}
