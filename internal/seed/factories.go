// Package seed provides helpers to create demo data for development and
// tests. Nothing here runs in production paths.
package seed

import (
	"fmt"
	"strings"
	"unicode"

	"projectarium/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated user.
const DefaultPassword = "password123"

// Factory builds users and projects with fake but valid content.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	cost  int
	hash  string
	seq   int
	names map[uint]map[string]struct{}
}

// NewFactory returns a Factory whose output is reproducible for a given seed.
// cost is the bcrypt cost; zero means bcrypt.DefaultCost.
func NewFactory(db *gorm.DB, seed int64, cost int) *Factory {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Factory{
		db:    db,
		faker: gofakeit.New(seed),
		cost:  cost,
		names: map[uint]map[string]struct{}{},
	}
}

// passwordHash hashes DefaultPassword once per factory.
func (f *Factory) passwordHash() (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), f.cost)
	if err != nil {
		return "", err
	}
	f.hash = string(hash)
	return f.hash, nil
}

// BuildUser returns an unsaved user. Usernames are unique per factory.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, err
	}
	f.seq++
	user := &models.User{
		Username:      f.username(),
		DisplayName:   f.faker.Name(),
		Password:      hash,
		Description:   f.faker.Sentence(10),
		ProfileColour: f.faker.Number(1, 7),
		Credits:       f.faker.Number(0, 20) * 100,
		Role:          models.RoleUser,
	}
	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// CreateUser builds and persists a user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user, err := f.BuildUser(overrides...)
	if err != nil {
		return nil, err
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// CreateProject persists a public project for owner with a name unique to that owner.
func (f *Factory) CreateProject(owner *models.User, overrides ...func(*models.Project)) (*models.Project, error) {
	name := f.projectName(owner.ID)
	project := &models.Project{
		Name:        name,
		Description: f.faker.HackerPhrase(),
		Link:        fmt.Sprintf("https://github.com/%s/%s", owner.Username, slug(name)),
		OwnerID:     owner.ID,
		Status:      models.ProjectStatusPublic,
	}
	for _, override := range overrides {
		override(project)
	}
	if err := f.db.Create(project).Error; err != nil {
		return nil, fmt.Errorf("create project %s: %w", project.Name, err)
	}
	return project, nil
}

// CommentText returns a short fake comment.
func (f *Factory) CommentText() string {
	return f.faker.Sentence(f.faker.Number(4, 12))
}

// Chance reports true with probability p.
func (f *Factory) Chance(p float64) bool {
	return f.faker.Float64Range(0, 1) < p
}

// username derives a name that passes signup validation from a fake handle.
func (f *Factory) username() string {
	base := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return -1
	}, f.faker.Username())
	if len(base) < 3 {
		base = "user"
	}
	suffix := fmt.Sprintf("_%d", f.seq)
	if len(base)+len(suffix) > 30 {
		base = base[:30-len(suffix)]
	}
	return base + suffix
}

func (f *Factory) projectName(ownerID uint) string {
	used, ok := f.names[ownerID]
	if !ok {
		used = map[string]struct{}{}
		f.names[ownerID] = used
	}
	name := f.faker.AppName()
	for i := 2; ; i++ {
		if _, taken := used[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s %d", f.faker.AppName(), i)
	}
	used[name] = struct{}{}
	return name
}

func slug(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}
