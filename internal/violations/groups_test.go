package violations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupsRaw(t *testing.T) {
	t.Parallel()

	g := NewGroups(GroupRaw)
	g.Add("b", "second entity")
	g.Add("a", "first")
	g.Add("a", "")
	g.Add("a", "again")
	g.Add("A", "different key")

	assert.Equal(t, []string{"A", "a", "b"}, g.Entities())
	assert.Equal(t, []string{"first", "again"}, g.Narratives("a"))
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, 4, g.Total())
}

func TestGroupsCanonical(t *testing.T) {
	t.Parallel()

	g := NewGroups(GroupCanonical)
	g.Add("Partidul Ălfa-Beta", "one")
	g.Add("PARTIDUL ALFA-BETA", "two")
	g.Add("Uniunea Z", "three")

	assert.Equal(t, []string{"Partidul Ălfa-Beta", "Uniunea Z"}, g.Entities())
	assert.Equal(t, []string{"one", "two"}, g.Narratives("Partidul Ălfa-Beta"))
}

func TestGroupsMapIsCopy(t *testing.T) {
	t.Parallel()

	g := NewGroups(GroupRaw)
	g.Add("x", "n1")

	m := g.Map()
	m["x"][0] = "mutated"
	assert.Equal(t, []string{"n1"}, g.Narratives("x"))
}
