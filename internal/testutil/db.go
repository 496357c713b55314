// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"

	"projectarium/internal/database"
	"projectarium/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a migrated in-memory SQLite database private to t.
// The pool is capped at one connection because every new in-memory
// connection would see an empty database.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given username and credits.
func CreateUser(t testing.TB, db *gorm.DB, username string, credits int) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &models.User{
		Username:    username,
		DisplayName: username,
		Password:    string(hash),
		Description: models.DefaultDescription,
		Credits:     credits,
		Role:        models.RoleUser,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// CreateAdmin inserts a user with the admin role.
func CreateAdmin(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := CreateUser(t, db, username, 0)
	if err := db.Model(u).Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatalf("promote %s: %v", username, err)
	}
	u.Role = models.RoleAdmin
	return u
}

// CreateUsers inserts n users named prefix_0 .. prefix_{n-1}.
func CreateUsers(t testing.TB, db *gorm.DB, prefix string, n int) []*models.User {
	t.Helper()
	users := make([]*models.User, n)
	for i := range users {
		users[i] = CreateUser(t, db, fmt.Sprintf("%s_%d", prefix, i), 0)
	}
	return users
}

// CreateProject inserts a public project owned by ownerID.
func CreateProject(t testing.TB, db *gorm.DB, ownerID uint, name string) *models.Project {
	t.Helper()
	p := &models.Project{
		Name:        name,
		Description: "description of " + name,
		Link:        "https://example.com/" + name,
		OwnerID:     ownerID,
		Status:      models.ProjectStatusPublic,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create project %s: %v", name, err)
	}
	return p
}

// CreateComment inserts a comment and the author's like edge.
func CreateComment(t testing.TB, db *gorm.DB, projectID, userID uint, text string) *models.Comment {
	t.Helper()
	c := &models.Comment{ProjectID: projectID, UserID: userID, Text: text}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if err := db.Create(&models.CommentLike{UserID: userID, CommentID: c.ID}).Error; err != nil {
		t.Fatalf("create comment like: %v", err)
	}
	return c
}

// Count returns the number of rows of model matching the optional condition.
func Count(t testing.TB, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
