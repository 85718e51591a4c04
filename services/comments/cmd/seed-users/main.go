// seed-users provisions the users document consumed by the comments
// service's file backend. The comments service itself never writes users;
// this tool is the out-of-band write path.
//
//	seed-users -data-dir ./data -username ada -email ada@example.com \
//	    -name "Ada Lovelace" -password s3cret -role admin
package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/movie-platform/internal/platform/docstore"
	"github.com/example/movie-platform/internal/platform/logging"
	"github.com/example/movie-platform/services/comments/internal/users"
)

type userDocument struct {
	Users []users.User `json:"users"`
}

func main() {
	var (
		dataDir  = flag.String("data-dir", "./data", "directory holding users.json")
		id       = flag.String("id", "", "user id (generated when empty)")
		name     = flag.String("name", "", "display name")
		username = flag.String("username", "", "login handle (required)")
		email    = flag.String("email", "", "email address (required)")
		password = flag.String("password", "", "plaintext password to hash (required)")
		role     = flag.String("role", "user", "role: user or admin")
	)
	flag.Parse()

	log, err := logging.NewConsole("info")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if strings.TrimSpace(*username) == "" || strings.TrimSpace(*email) == "" || *password == "" {
		log.Error("username, email and password are required")
		os.Exit(2)
	}
	if *role != "user" && *role != users.RoleAdmin {
		log.Error("role must be user or admin", zap.String("role", *role))
		os.Exit(2)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("hash password", zap.Error(err))
		os.Exit(1)
	}

	u := users.User{
		ID:           strings.TrimSpace(*id),
		Name:         strings.TrimSpace(*name),
		Username:     strings.TrimSpace(*username),
		Email:        strings.TrimSpace(*email),
		Role:         *role,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	docs := docstore.New(log)
	path := filepath.Join(*dataDir, "users.json")

	var doc userDocument
	docs.ReadJSON(path, &doc)

	// Upsert by username so re-running the tool rotates the password
	// instead of duplicating the user.
	replaced := false
	for i, existing := range doc.Users {
		if existing.Username == u.Username {
			u.ID = existing.ID
			u.CreatedAt = existing.CreatedAt
			doc.Users[i] = u
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Users = append(doc.Users, u)
	}

	if err := docs.WriteJSON(path, doc); err != nil {
		log.Error("write users document", zap.Error(err))
		os.Exit(1)
	}
	log.Info("user saved",
		zap.String("id", u.ID),
		zap.String("username", u.Username),
		zap.String("role", u.Role),
		zap.Bool("updated", replaced))
}
