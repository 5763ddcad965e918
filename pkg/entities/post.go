package entities

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-record/pkg/catalog"
	"github.com/ekaya-inc/ekaya-record/pkg/database"
	"github.com/ekaya-inc/ekaya-record/pkg/record"
)

// PostTable is the table backing Post.
const PostTable = "posts"

// PostDefinition maps Post onto PostTable.
var PostDefinition = record.Definition{
	Table:     PostTable,
	Fillable:  []string{"user_id", "title", "body"},
	Relations: []string{"user"},
}

// Post is an article written by a User.
type Post struct {
	ID     int64   `json:"id" yaml:"id"`
	UserID int64   `json:"user_id" yaml:"user_id"`
	Title  string  `json:"title" yaml:"title"`
	Body   *string `json:"body,omitempty" yaml:"body,omitempty"`
}

// MapPost converts a posts record into a Post.
func MapPost(m *record.Model) (Post, error) {
	var (
		p   Post
		err error
	)
	if p.ID, err = m.Int64("id"); err != nil {
		return Post{}, fmt.Errorf("map post: %w", err)
	}
	if p.UserID, err = m.Int64("user_id"); err != nil {
		return Post{}, fmt.Errorf("map post %d: %w", p.ID, err)
	}
	if p.Title, err = m.Text("title"); err != nil {
		return Post{}, fmt.Errorf("map post %d: %w", p.ID, err)
	}
	if p.Body, err = m.OptionalText("body"); err != nil {
		return Post{}, fmt.Errorf("map post %d: %w", p.ID, err)
	}
	return p, nil
}

// NewPostRepository creates a repository for posts.
func NewPostRepository(conn *database.Connection, introspector catalog.Introspector, logger *zap.Logger) *record.Repository[Post] {
	return record.NewRepository(conn, introspector, PostDefinition, MapPost, logger)
}
