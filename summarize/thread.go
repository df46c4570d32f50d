package summarize

import (
	"sort"
	"strings"
	"time"
)

// CommentTimeLayout renders comment timestamps, e.g. 2023-Jul-07 14:05.
const CommentTimeLayout = "2006-Jan-02 15:04"

// ThreadContent is a fetched post plus its comment bodies (ancestors first, then descendants).
type ThreadContent struct {
	Content  string   `json:"content"`
	Username string   `json:"username,omitempty"`
	Comments []string `json:"comments,omitempty"`
}

// Merged returns the post body followed by the comments, one per line. An empty post body becomes NoContent.
func (t ThreadContent) Merged() string {
	content := t.Content
	if content == "" {
		content = NoContent
	}
	if len(t.Comments) == 0 {
		return content
	}
	return content + "\n" + strings.Join(t.Comments, "\n")
}

// Comment is a node in a reply tree.
type Comment struct {
	Author    string
	Content   string
	CreatedAt time.Time
	Replies   []Comment
}

// FlattenComments walks a reply tree depth-first and returns one line per comment.
// Replies at each level are ordered newest first; a reply at depth d is prefixed with d-1 spaces and "> ".
func FlattenComments(root Comment) []string {
	var lines []string
	var walk func(c Comment, depth int)
	walk = func(c Comment, depth int) {
		prefix := ""
		if depth > 0 {
			prefix = strings.Repeat(" ", depth-1) + "> "
		}
		lines = append(lines, prefix+commentLine(c))
		for _, r := range newestFirst(c.Replies) {
			walk(r, depth+1)
		}
	}
	walk(root, 0)
	return lines
}

func commentLine(c Comment) string {
	author := c.Author
	if author == "" {
		author = "deleted"
	}
	return c.CreatedAt.Format(CommentTimeLayout) + " [" + author + "] " + c.Content + " "
}

func newestFirst(in []Comment) []Comment {
	out := append([]Comment(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
