package book_test

import (
	"encoding/json"
	"testing"

	"bookreview/internal/book"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBook_ReviewsEncodeAsArray(t *testing.T) {
	b := book.Book{ID: "1", Title: "Dune"}
	b.Normalize()

	raw, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"1","title":"Dune","author":"","genre":"","rating":0,"reviews":[]}`, string(raw))
}

func TestPatch_Apply(t *testing.T) {
	original := book.Book{
		ID:      "1",
		Title:   "Dune",
		Author:  "Frank Herbert",
		Genre:   "Sci-Fi",
		Rating:  4,
		Reviews: []string{"good"},
	}

	tests := []struct {
		name  string
		patch book.Patch
		want  book.Book
	}{
		{
			name:  "rating only",
			patch: book.Patch{Rating: ptr(4.8)},
			want:  book.Book{ID: "1", Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", Rating: 4.8, Reviews: []string{"good"}},
		},
		{
			name:  "author and genre",
			patch: book.Patch{Author: ptr("F. Herbert"), Genre: ptr("")},
			want:  book.Book{ID: "1", Title: "Dune", Author: "F. Herbert", Genre: "", Rating: 4, Reviews: []string{"good"}},
		},
		{
			name:  "replace reviews",
			patch: book.Patch{Reviews: ptr([]string{"a", "b"})},
			want:  book.Book{ID: "1", Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", Rating: 4, Reviews: []string{"a", "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := original
			b.Reviews = append([]string{}, original.Reviews...)
			tt.patch.Apply(&b)
			assert.Equal(t, tt.want, b)
		})
	}
}

func TestPatch_IsEmpty(t *testing.T) {
	assert.True(t, book.Patch{}.IsEmpty())
	assert.False(t, book.Patch{Rating: ptr(0.0)}.IsEmpty())
	assert.False(t, book.Patch{Reviews: ptr([]string{})}.IsEmpty())
}
