// Package seed provides helpers to create demo data for the application
// database. Posts are written through the post service so they carry real
// moderation statuses and ranking keys. Development and testing only.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"townsquare/internal/featureflags"
	"townsquare/internal/models"
	"townsquare/internal/moderation"
	"townsquare/internal/ranking"
	"townsquare/internal/repository"
	"townsquare/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is shared by every seeded account.
const DefaultPassword = "password123"

// Options configures a seeding run.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	// SkipBcrypt uses the cheapest bcrypt cost; logins still work.
	SkipBcrypt bool
	// RandSeed makes generated content reproducible. Zero picks a random seed.
	RandSeed int64
}

// DefaultBlockedWords is the starter blocklist.
var DefaultBlockedWords = []models.BlockedWord{
	{Word: "scamlink", Severity: models.SeverityHigh},
	{Word: "buy followers", Severity: models.SeverityHigh},
	{Word: "free money", Severity: models.SeverityMedium},
	{Word: "clickbait", Severity: models.SeverityMedium},
	{Word: "darn", Severity: models.SeverityLow},
}

// Summary reports what a run created.
type Summary struct {
	BlockedWords int
	Users        int
	Posts        map[models.PostStatus]int
	Rejected     int
}

// Seeder writes demo data.
type Seeder struct {
	db    *gorm.DB
	posts *service.PostService
	faker *gofakeit.Faker
	opts  Options
}

// NewSeeder returns a Seeder bound to db. Its post service reads the
// blocklist straight from the database so freshly seeded words apply.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	gate := moderation.NewGate(moderation.SourceBlocklist{Source: repository.NewBlockedWordRepository(db)})
	return &Seeder{
		db:    db,
		posts: service.NewPostService(repository.NewPostRepository(db), gate, featureflags.NewManager(""), 0),
		faker: gofakeit.New(opts.RandSeed),
		opts:  opts,
	}
}

// Run seeds blocked words, users and posts in that order.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	if s.opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("clear: %w", err)
		}
	}

	words, err := s.BlockedWords(ctx)
	if err != nil {
		return nil, fmt.Errorf("blocked words: %w", err)
	}
	users, err := s.Users(ctx, s.opts.NumUsers)
	if err != nil {
		return nil, fmt.Errorf("users: %w", err)
	}
	summary, err := s.Posts(ctx, users, s.opts.NumPosts)
	if err != nil {
		return nil, fmt.Errorf("posts: %w", err)
	}
	summary.BlockedWords = words
	summary.Users = len(users)

	slog.InfoContext(ctx, "seeding complete",
		slog.Int("blocked_words", summary.BlockedWords),
		slog.Int("users", summary.Users),
		slog.Int("rejected_posts", summary.Rejected),
	)
	return summary, nil
}

// ClearAll deletes seeded tables, children first. Migration history is kept.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tables := []string{"saved_posts", "likes", "reports", "comments", "posts", "blocked_users", "users", "blocked_words"}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// BlockedWords inserts DefaultBlockedWords, skipping words already present.
func (s *Seeder) BlockedWords(ctx context.Context) (int, error) {
	created := 0
	for _, w := range DefaultBlockedWords {
		entry := w
		result := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "word"}}, DoNothing: true}).
			Create(&entry)
		if result.Error != nil {
			return created, result.Error
		}
		created += int(result.RowsAffected)
	}
	return created, nil
}

// Users creates n accounts. The first four cover every role with
// predictable emails (admin@townsquare.local, ...); the rest are members and
// plain users.
func (s *Seeder) Users(ctx context.Context, n int) ([]*models.User, error) {
	cost := bcrypt.DefaultCost
	if s.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, err
	}

	fixed := []string{models.RoleAdmin, models.RoleStaff, models.RoleMember, models.RoleUser}
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		u := &models.User{Password: string(hash)}
		if i < len(fixed) {
			u.Role = fixed[i]
			u.Username = strings.ToLower(fixed[i])
			u.Email = u.Username + "@townsquare.local"
		} else {
			u.Role = s.faker.RandomString([]string{models.RoleMember, models.RoleUser})
			u.Username = fmt.Sprintf("%s_%d", sanitizeUsername(s.faker.Username()), i)
			u.Email = fmt.Sprintf("user%d.%s", i, s.faker.Email())
		}

		if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
			return users, fmt.Errorf("create %s: %w", u.Username, err)
		}
		users = append(users, u)
	}
	return users, nil
}

// Posts creates n posts spread over authors. Some content trips the
// blocklist on purpose so every moderation outcome is represented.
func (s *Seeder) Posts(ctx context.Context, authors []*models.User, n int) (*Summary, error) {
	summary := &Summary{Posts: make(map[models.PostStatus]int)}
	if n <= 0 {
		return summary, nil
	}
	if len(authors) == 0 {
		return nil, errors.New("seed: posts need at least one author")
	}

	for i := 0; i < n; i++ {
		author := authors[s.faker.Number(0, len(authors)-1)]
		in := service.CreatePostInput{
			AuthorID: author.ID,
			Role:     author.Role,
			Title:    s.faker.Sentence(s.faker.Number(3, 8)),
			Body:     s.faker.Paragraph(1, 3, 12, "\n"),
			Tags:     s.tags(),
			IsPinned: ranking.CanPin(author.Role) && s.faker.Number(1, 20) == 1,
		}
		if s.faker.Number(1, 4) == 1 {
			in.MediaURLs = []string{fmt.Sprintf("https://picsum.photos/seed/%s/800/600", s.faker.UUID())}
		}
		switch roll := s.faker.Number(1, 20); {
		case roll == 1:
			in.Body += " check this scamlink"
		case roll <= 3:
			in.Body += " free money inside"
		}

		post, err := s.posts.CreatePost(ctx, in)
		if err != nil {
			if errors.Is(err, service.ErrModerationRejected) {
				summary.Rejected++
				continue
			}
			return summary, err
		}
		summary.Posts[post.Status]++
	}
	return summary, nil
}

func (s *Seeder) tags() []string {
	count := s.faker.Number(0, 2)
	tags := make([]string, 0, count)
	for i := 0; i < count; i++ {
		tags = append(tags, s.faker.RandomString(ranking.ValidTags))
	}
	return tags
}

func sanitizeUsername(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > 20 {
		out = out[:20]
	}
	if out == "" {
		out = "user"
	}
	return out
}
