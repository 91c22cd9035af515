package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lmk-backend/config"
	"lmk-backend/models"

	"github.com/apex/log"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Database represents the database connection
type Database struct {
	db *sql.DB
}

// NewDatabase opens a connection to the Postgres backend
func NewDatabase(cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection with exponential backoff retry
	var waitInterval = 1 * time.Second
	var pingErr error
	for attempt := 0; attempt < 6; attempt++ {
		if pingErr = db.Ping(); pingErr == nil {
			break
		}
		log.Warnf("Database connection failed, retrying in %v: %v", waitInterval, pingErr)
		time.Sleep(waitInterval)
		waitInterval *= 2
	}
	if pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", pingErr)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Database{db: db}, nil
}

// NewFromDB wraps an existing connection. Used by tests.
func NewFromDB(db *sql.DB) *Database {
	return &Database{db: db}
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// GetDB returns the underlying connection
func (d *Database) GetDB() *sql.DB {
	return d.db
}

// CreateTables creates the posts and post_images tables if they don't exist
func (d *Database) CreateTables() error {
	postsQuery := `
	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		author_id TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		close_warning TEXT NOT NULL DEFAULT '',
		far_warning TEXT NOT NULL DEFAULT '',
		urgency TEXT NOT NULL,
		radius DOUBLE PRECISION NOT NULL DEFAULT 0
	)`

	imagesQuery := `
	CREATE TABLE IF NOT EXISTS post_images (
		post_id TEXT PRIMARY KEY REFERENCES posts(id) ON DELETE CASCADE,
		content_type TEXT NOT NULL DEFAULT 'image/jpeg',
		image BYTEA NOT NULL
	)`

	if _, err := d.db.Exec(postsQuery); err != nil {
		return fmt.Errorf("failed to create posts table: %w", err)
	}
	if _, err := d.db.Exec(imagesQuery); err != nil {
		return fmt.Errorf("failed to create post_images table: %w", err)
	}
	return nil
}

// SavePostWithImage stores a post row and its image blob in one
// transaction. A post and its image are stored together or not at all.
func (d *Database) SavePostWithImage(ctx context.Context, post *models.Post, image []byte, contentType string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO posts (id, created_at, author_id, latitude, longitude, title, description,
			summary, close_warning, far_warning, urgency, radius)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		post.ID, post.CreatedAt, post.AuthorID, post.Latitude, post.Longitude,
		post.Title, post.Description, post.Summary, post.CloseWarning,
		post.FarWarning, string(post.Urgency), post.Radius,
	); err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO post_images (post_id, content_type, image)
		VALUES ($1, $2, $3)`,
		post.ID, contentType, image,
	); err != nil {
		return fmt.Errorf("failed to insert post image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetAllPosts returns every stored post, oldest first
func (d *Database) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, created_at, author_id, latitude, longitude, title, description,
			summary, close_warning, far_warning, urgency, radius
		FROM posts
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var p models.Post
		var urgency string
		if err := rows.Scan(&p.ID, &p.CreatedAt, &p.AuthorID, &p.Latitude, &p.Longitude,
			&p.Title, &p.Description, &p.Summary, &p.CloseWarning, &p.FarWarning,
			&urgency, &p.Radius); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		p.Urgency = models.Urgency(urgency)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return posts, nil
}

// GetPostImage returns the image blob and content type for a post.
// Returns sql.ErrNoRows when the post has no stored image.
func (d *Database) GetPostImage(ctx context.Context, postID string) ([]byte, string, error) {
	var image []byte
	var contentType string
	err := d.db.QueryRowContext(ctx,
		`SELECT image, content_type FROM post_images WHERE post_id = $1`,
		postID,
	).Scan(&image, &contentType)
	if err != nil {
		return nil, "", err
	}
	return image, contentType, nil
}
