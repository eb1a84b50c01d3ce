package aql

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestCompile_DocumentWithNestedTraversal(t *testing.T) {
	q := mustExtractRoot(t, `{ user(id: "u1") { id name posts { id title } } }`, nil)

	got := mustCompile(t, q, "user")
	want := `LET result = FIRST(
  LET user = DOCUMENT("users", @field_user.args.id)
  FILTER user != null
  RETURN {
    id: user.id,
    name: user.name,
    posts: (
      FOR user_posts IN OUTBOUND user posted
      RETURN {
        id: user_posts.id,
        title: user_posts.title
      }
    )
  }
)
RETURN result`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("program mismatch (-want +got):\n%s", diff)
	}

	gotVars := CollectBindVars(q, "user", nil, nil)
	wantVars := map[string]any{
		"parent":           nil,
		"context":          nil,
		"field_user":       map[string]any{"args": map[string]any{"id": "u1"}},
		"field_user_posts": map[string]any{"args": nil},
	}
	if diff := cmp.Diff(wantVars, gotVars); diff != "" {
		t.Fatalf("bind vars mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_ListWithSortAndLimit(t *testing.T) {
	q := mustExtractRoot(t, `{ users { id } }`, nil)

	got := mustCompile(t, q, "users")
	want := `LET result = (
  FOR users IN people
  SORT users["name"] ASC
  LIMIT @field_users.args.limit
  RETURN {
    id: users.id
  }
)
RETURN result`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("program mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, map[string]any{"args": map[string]any{"limit": 10}}, CollectBindVars(q, "users", nil, nil)["field_users"])
}

func TestCompile_PlainObjectProjectsSelection(t *testing.T) {
	q := mustExtractRoot(t, `{ user(id: "u1") { home: address { c: city country { name } } addresses { city } } }`, nil)

	got := mustCompile(t, q, "user")
	want := `LET result = FIRST(
  LET user = DOCUMENT("users", @field_user.args.id)
  FILTER user != null
  RETURN {
    home: FIRST(
      LET user_home = user.address
      FILTER user_home != null
      RETURN {
        c: user_home.city,
        country: FIRST(
          LET user_home_country = DOCUMENT("countries", user_home.countryKey)
          FILTER user_home_country != null
          RETURN {
            name: user_home_country.name
          }
        )
      }
    ),
    addresses: (
      FOR user_addresses IN TO_ARRAY(user.addresses)
      RETURN {
        city: user_addresses.city
      }
    )
  }
)
RETURN result`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("program mismatch (-want +got):\n%s", diff)
	}

	vars := CollectBindVars(q, "user", nil, nil)
	require.Contains(t, vars, "field_user_home_country")
	require.Len(t, vars, 6)
}

func TestCompile_NoSelectionReturnsValue(t *testing.T) {
	q := mustExtractRoot(t, `{ user(id: "u1") { key } }`, nil)

	got := mustCompile(t, q, "user")
	require.Contains(t, got, "    key: FIRST(\n      LET user_key = user._key\n      RETURN user_key\n    )")
}

func TestCompile_ConditionGuardsNode(t *testing.T) {
	q := mustExtractRoot(t, `{ user(id: "u1") { secret } }`, nil)

	got := mustCompile(t, q, "user")
	require.Contains(t, got, `    secret: FIRST(
      LET user_secret_condition = (@context.admin == true)
      FILTER user_secret_condition
      LET user_secret = user.secret
      FILTER user_secret != null
      RETURN user_secret
    )`)
}

func TestCompile_EdgeExposesNodeToEdgeNode(t *testing.T) {
	q := mustExtractRoot(t, `{ user(id: "u1") { friendships { since friend { name } } } }`, nil)

	got := mustCompile(t, q, "user")
	require.Contains(t, got, "FOR user_friendships_node, user_friendships IN ANY user friends\n")
	require.Contains(t, got, `OPTIONS {bfs: true, uniqueVertices: "global"}`)
	require.Contains(t, got, "since: user_friendships.since,")
	require.Contains(t, got, "LET user_friendships_friend = user_friendships_node\n")
	require.Contains(t, got, "name: user_friendships_friend.name")
}

func TestCompile_SubqueryMutationProjectsBoundaryAsPlainField(t *testing.T) {
	q := mustExtractRoot(t, `mutation { createPost(title: "hi") { _key post { id } } }`, nil)

	got := mustCompile(t, q, "createPost")
	want := `LET result = FIRST(
  INSERT {title: @field_createPost.args.title} INTO posts
  LET createPost = NEW
  FILTER createPost != null
  RETURN {
    _key: createPost._key,
    post: createPost.post
  }
)
RETURN result`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("program mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_KeywordKeysAreQuoted(t *testing.T) {
	q := mustExtractRoot(t, `{ user(id: "u1") { for: name return: id } }`, nil)

	got := mustCompile(t, q, "user")
	require.Contains(t, got, "\"for\": user.name,\n")
	require.Contains(t, got, "\"return\": user.id\n")

	raw := NewQuery(BuilderInstance{Builder: keyBuilder{}}, false)
	raw.addFieldName("options", "options")
	require.Contains(t, mustCompile(t, raw, "k"), "\"options\": k.`options`")
}

func TestCompile_CustomQueryBuilder(t *testing.T) {
	q := NewQuery(BuilderInstance{Builder: &CustomQueryBuilder{Text: "FOR u IN users FILTER u.age > @minAge RETURN u"}}, true)
	q.addFieldName("name", "name")

	got := mustCompile(t, q, "adults")
	want := `LET result = (
  FOR adults IN (
    FOR u IN users FILTER u.age > @minAge RETURN u
  )
  RETURN {
    name: adults.name
  }
)
RETURN result`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("program mismatch (-want +got):\n%s", diff)
	}

	one := NewQuery(BuilderInstance{Builder: &CustomQueryBuilder{Text: "FOR u IN users LIMIT 1 RETURN u"}}, false)
	require.Contains(t, mustCompile(t, one, "oldest"), "LET oldest = FIRST(\n    FOR u IN users LIMIT 1 RETURN u\n  )\n  FILTER oldest != null\n  RETURN oldest")

	_, err := Compile(NewQuery(BuilderInstance{Builder: &CustomQueryBuilder{}}, false), "empty")
	var cfg *BuilderConfigError
	require.True(t, errors.As(err, &cfg))
}

func TestCompile_BuilderMustEmitOneChildrenToken(t *testing.T) {
	noChildren := &Custom{Directive: "bad", Fn: func(Input) (string, error) { return "LET $field = 1", nil }}
	_, err := Compile(NewQuery(BuilderInstance{Builder: noChildren}, false), "x")
	var ie *InterpolationError
	require.True(t, errors.As(err, &ie))

	twice := &Custom{Directive: "bad", Fn: func(Input) (string, error) { return "$children $children", nil }}
	_, err = Compile(NewQuery(BuilderInstance{Builder: twice}, false), "x")
	require.True(t, errors.As(err, &ie))
}

func TestCompile_CustomBuilderSeesNames(t *testing.T) {
	var got Input
	b := &Custom{Directive: "probe", Helpers: []string{"tmp"}, Fn: func(in Input) (string, error) {
		got = in
		return "LET $field_tmp = $parent.v\nLET $field = $field_tmp\n$children", nil
	}}
	q := NewQuery(BuilderInstance{Builder: b, Directive: map[string]any{"a": 1}}, false)

	text := mustCompile(t, q, "probe")
	require.Equal(t, Input{Self: "probe", Parent: "@parent", Directive: map[string]any{"a": 1}}, got)
	require.Contains(t, text, "LET probe_tmp = @parent.v\n  LET probe = probe_tmp\n  RETURN probe")
}

func TestPrepare_SharesNamesWithCompile(t *testing.T) {
	q := mustExtractRoot(t, `{ result: user(id: "u1") { posts { id } } }`, nil)

	p, err := Prepare(q, "result", map[string]any{"_key": "p"}, map[string]any{"admin": true})
	require.NoError(t, err)
	require.Contains(t, p.Text, "LET result_2 = DOCUMENT(\"users\", @field_result_2.args.id)")
	require.Contains(t, p.Text, "FOR result_2_posts IN OUTBOUND result_2 posted")
	require.Equal(t, mustCompile(t, q, "result"), p.Text)

	wantVars := map[string]any{
		"parent":               map[string]any{"_key": "p"},
		"context":              map[string]any{"admin": true},
		"field_result_2":       map[string]any{"args": map[string]any{"id": "u1"}},
		"field_result_2_posts": map[string]any{"args": nil},
	}
	if diff := cmp.Diff(wantVars, p.BindVars); diff != "" {
		t.Fatalf("bind vars mismatch (-want +got):\n%s", diff)
	}
}
