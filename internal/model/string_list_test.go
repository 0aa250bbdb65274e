package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListScan(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  StringList
	}{
		{"null column", nil, StringList{}},
		{"json null", "null", StringList{}},
		{"empty bytes", []byte{}, StringList{}},
		{"text", `["python","sql"]`, StringList{"python", "sql"}},
		{"bytes", []byte(`["go"]`), StringList{"go"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var l StringList
			require.NoError(t, l.Scan(tc.value))
			assert.Equal(t, tc.want, l)
		})
	}

	var l StringList
	assert.Error(t, l.Scan(42))
	assert.Error(t, l.Scan("{not json"))
}

func TestStringListValue(t *testing.T) {
	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = StringList{"skill match: python", "local"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["skill match: python","local"]`, v)
}

func TestMatchStatusPredicates(t *testing.T) {
	assert.False(t, MatchStatusProposed.Advanced())
	assert.True(t, MatchStatusRejected.Advanced())
	assert.False(t, MatchStatusRejected.HoldsSeat())
	assert.True(t, MatchStatusHired.HoldsSeat())
	assert.True(t, MatchStatusInterviewing.HoldsSeat())
}

func TestApplicantCategoryDefault(t *testing.T) {
	empty := ""
	sc := "SC"
	assert.Equal(t, DefaultCategory, (&Applicant{}).Category())
	assert.Equal(t, DefaultCategory, (&Applicant{SocialCategory: &empty}).Category())
	assert.Equal(t, "SC", (&Applicant{SocialCategory: &sc}).Category())
}

func TestIsReservedCategory(t *testing.T) {
	assert.False(t, IsReservedCategory("General"))
	assert.False(t, IsReservedCategory("general"))
	assert.False(t, IsReservedCategory(""))
	assert.True(t, IsReservedCategory("OBC"))
}
