package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestResolveList_RootArray(t *testing.T) {
	got := ResolveList([]byte(`[{"id":1},{"id":2}]`), "")
	assert.Len(t, got, 2)
}

func TestResolveList_ConfiguredKeyWinsOverFallbacks(t *testing.T) {
	raw := []byte(`{"posts":[{"id":1}],"items":[{"id":2},{"id":3}]}`)

	got := ResolveList(raw, "posts")

	assert.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].Get("id").Int())
}

func TestResolveList_FallbackOrder(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int64
	}{
		{"items", `{"items":[{"id":1}],"results":[{"id":9}]}`, 1},
		{"results", `{"results":[{"id":2}],"data":[{"id":9}]}`, 2},
		{"data", `{"data":[{"id":3}]}`, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveList([]byte(tc.raw), "")
			assert.Len(t, got, 1)
			assert.Equal(t, tc.want, got[0].Get("id").Int())
		})
	}
}

func TestResolveList_NoListIsEmptyNotError(t *testing.T) {
	assert.Empty(t, ResolveList([]byte(`{"status":"ok"}`), ""))
	assert.Empty(t, ResolveList([]byte(`not json at all`), ""))
	assert.Empty(t, ResolveList(nil, "posts"))
	// key present but not a list
	assert.Empty(t, ResolveList([]byte(`{"items":"nope"}`), ""))
}

func TestFirstString_FallbackEquivalence(t *testing.T) {
	// An item carrying only the fallback name must normalize identically to
	// one carrying the canonical name.
	canonical := gjson.Parse(`{"title":"Hello"}`)
	fallback := gjson.Parse(`{"headline":"Hello"}`)

	candidates := []string{"title", "headline"}

	assert.Equal(t,
		FirstString(canonical, candidates...),
		FirstString(fallback, candidates...),
	)
}

func TestFirstString_SkipsEmptyAndNonString(t *testing.T) {
	item := gjson.Parse(`{"title":"  ","id":7,"headline":"Real"}`)

	assert.Equal(t, "Real", FirstString(item, "title", "id", "headline"))
	assert.Equal(t, "", FirstString(item, "missing", "title"))
}

func TestFirstInt(t *testing.T) {
	item := gjson.Parse(`{"views":"12","count":34}`)

	// string "12" is not a number; falls through to count
	assert.Equal(t, 34, FirstInt(item, "views", "count"))
	assert.Equal(t, 0, FirstInt(item, "missing"))
}

func TestFirstStringList_ArrayOfStrings(t *testing.T) {
	item := gjson.Parse(`{"tags":[" go ","","news"]}`)

	assert.Equal(t, []string{"go", "news"}, FirstStringList(item, "tags"))
}

func TestFirstStringList_CommaSeparatedString(t *testing.T) {
	item := gjson.Parse(`{"tags":"go, news , ,cloud"}`)

	assert.Equal(t, []string{"go", "news", "cloud"}, FirstStringList(item, "tags"))
}

func TestFirstStringList_ArrayOfObjectsUsesName(t *testing.T) {
	item := gjson.Parse(`{"tags":[{"name":"go"},{"title":"news"},{"id":3}]}`)

	assert.Equal(t, []string{"go", "news"}, FirstStringList(item, "tags"))
}

func TestFirstStringList_NumericIDsFallThrough(t *testing.T) {
	// Bare term IDs carry no names; the embedded terms candidate should win.
	item := gjson.Parse(`{"tags":[4,8],"_embedded":{"wp:term":[[],[{"name":"go"},{"name":"news"}]]}}`)

	got := FirstStringList(item, "tag_names", "_embedded.wp:term.1.#.name", "tags")

	assert.Equal(t, []string{"go", "news"}, got)
}

func TestFirstStringList_NoMatchIsEmptySlice(t *testing.T) {
	item := gjson.Parse(`{"id":1}`)

	got := FirstStringList(item, "tags", "tag_names")

	assert.NotNil(t, got)
	assert.Empty(t, got)
}
