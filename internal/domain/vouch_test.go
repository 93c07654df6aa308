package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVouch_Validate(t *testing.T) {
	base := Vouch{ID: "x", SubjectID: "1", AuthorID: "2", Points: 1, Comment: "ok"}

	cases := []struct {
		name   string
		mutate func(*Vouch)
		errIs  error
	}{
		{name: "valid", mutate: func(*Vouch) {}},
		{name: "zero points", mutate: func(v *Vouch) { v.Points = 0 }},
		{name: "max points", mutate: func(v *Vouch) { v.Points = MaxPoints }},
		{name: "negative points", mutate: func(v *Vouch) { v.Points = -1 }, errIs: ErrPointsOutOfRange},
		{name: "too many points", mutate: func(v *Vouch) { v.Points = MaxPoints + 1 }, errIs: ErrPointsOutOfRange},
		{name: "blank comment", mutate: func(v *Vouch) { v.Comment = "   " }, errIs: ErrEmptyComment},
		{name: "comment at cap", mutate: func(v *Vouch) { v.Comment = strings.Repeat("a", MaxCommentLen) }},
		{name: "comment over cap", mutate: func(v *Vouch) { v.Comment = strings.Repeat("a", MaxCommentLen+1) }, errIs: ErrCommentTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := base
			tc.mutate(&v)
			err := v.Validate()
			if tc.errIs == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.errIs)
		})
	}
}

func TestNormalizeComment(t *testing.T) {
	assert.Equal(t, DefaultComment, NormalizeComment(""))
	assert.Equal(t, DefaultComment, NormalizeComment("  \t "))
	assert.Equal(t, "hola", NormalizeComment("  hola "))

	long := strings.Repeat("ñ", MaxCommentLen+20)
	got := NormalizeComment(long)
	assert.Equal(t, MaxCommentLen, len([]rune(got)))
}

func TestEllipsis(t *testing.T) {
	assert.Equal(t, "short", Ellipsis("short", 50))
	exact := strings.Repeat("a", 50)
	assert.Equal(t, exact, Ellipsis(exact, 50))
	assert.Equal(t, strings.Repeat("a", 50)+"...", Ellipsis(strings.Repeat("a", 51), 50))
}

func TestNewVouchID_Unique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		id := NewVouchID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestUserRef(t *testing.T) {
	r := Resolved("42", "koala")
	assert.True(t, r.Known())
	assert.Equal(t, "koala", r.Display())
	assert.Equal(t, "<@42>", r.Mention())

	u := Unknown("43")
	assert.False(t, u.Known())
	assert.Equal(t, UnknownUserTag, u.Display())
	assert.Equal(t, "<@43>", u.Mention())
}

func TestStarsAndRating(t *testing.T) {
	assert.Equal(t, "☆☆☆☆☆", Stars(0))
	assert.Equal(t, "★☆☆☆☆", Stars(150))
	assert.Equal(t, "★★★★★", Stars(10000))
	assert.Equal(t, "☆☆☆☆☆", Stars(-5))

	assert.Equal(t, 0.0, Rating(10, 0))
	// 10 vouches de 1 punto: 10 / 50 * 5 = 1
	assert.Equal(t, 1.0, Rating(10, 10))
	assert.Equal(t, "1.00", FormatRating(10, 10))
}
