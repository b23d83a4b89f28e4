package modules_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/tilth/pkg/core"
	"github.com/aretw0/tilth/pkg/modules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contents(docs []core.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Content()
	}
	return out
}

func TestExecute_Cardinality(t *testing.T) {
	m := modules.Execute(func(_ *core.ExecutionContext, d core.Document) ([]core.Document, error) {
		switch d.Content() {
		case "drop":
			return nil, nil
		case "split":
			return []core.Document{d.WithContent("s1"), d.WithContent("s2")}, nil
		}
		return []core.Document{d}, nil
	})

	out, err := m.Execute(newContext(), []core.Document{doc("a"), doc("drop"), doc("split"), doc("b")})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "s1", "s2", "b"}, contents(out))
}

func TestExecute_ConcurrentKeepsOrder(t *testing.T) {
	var inFlight, peak int32
	m := modules.Execute(func(_ *core.ExecutionContext, d core.Document) ([]core.Document, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		// Earlier documents sleep longer so they finish last.
		delay := time.Duration(10-len(d.Content())) * time.Millisecond
		time.Sleep(delay)
		atomic.AddInt32(&inFlight, -1)
		return []core.Document{d.WithContent(strings.ToUpper(d.Content())), d}, nil
	}).WithConcurrency(3)

	var inputs []core.Document
	for _, c := range []string{"a", "bb", "ccc", "dddd", "eeeee"} {
		inputs = append(inputs, doc(c))
	}

	out, err := m.Execute(newContext(), inputs)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "a", "BB", "bb", "CCC", "ccc", "DDDD", "dddd", "EEEEE", "eeeee"}, contents(out))
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestExecute_ConcurrentError(t *testing.T) {
	boom := errors.New("boom")
	m := modules.Execute(func(_ *core.ExecutionContext, d core.Document) ([]core.Document, error) {
		if d.Content() == "bad" {
			return nil, boom
		}
		return []core.Document{d}, nil
	}).WithConcurrency(4)

	_, err := m.Execute(newContext(), []core.Document{doc("a"), doc("bad"), doc("c")})
	assert.ErrorIs(t, err, boom)
}

func TestExecuteEachAndBatch(t *testing.T) {
	each := modules.ExecuteEach(func(d core.Document) core.Document {
		return d.WithContent(d.Content() + "!")
	})
	reverse := modules.ExecuteBatch(func(_ *core.ExecutionContext, in []core.Document) ([]core.Document, error) {
		out := make([]core.Document, len(in))
		for i, d := range in {
			out[len(in)-1-i] = d
		}
		return out, nil
	})

	out, err := core.NewPipeline("p", each, reverse).Run(context.Background(), core.RunConfig{}, []core.Document{doc("a"), doc("b")})
	require.NoError(t, err)
	assert.Equal(t, []string{"b!", "a!"}, contents(out))
}

func TestMeta(t *testing.T) {
	length := modules.Meta("length", func(_ *core.ExecutionContext, d core.Document) (any, bool) {
		if d.Content() == "" {
			return nil, false
		}
		return len(d.Content()), true
	})

	out, err := length.Execute(newContext(), []core.Document{doc("abc"), doc("")})
	require.NoError(t, err)
	require.Len(t, out, 2)

	v, ok := out[0].Get("length")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.False(t, out[1].Metadata().Has("length"))

	out, err = modules.MetaValue("layout", "post").Execute(newContext(), out)
	require.NoError(t, err)
	layout, _ := out[1].Metadata().String("layout")
	assert.Equal(t, "post", layout)
}

func TestMeta_Validate(t *testing.T) {
	assert.Error(t, modules.Meta("", func(*core.ExecutionContext, core.Document) (any, bool) { return nil, true }).Validate())
	assert.Error(t, modules.Meta("k", nil).Validate())

	_, err := core.NewPipeline("p", modules.Meta("k", nil)).Run(context.Background(), core.RunConfig{}, nil)
	assert.True(t, core.IsConfigError(err))
}

func TestWhereAndContent(t *testing.T) {
	p := core.NewPipeline("p",
		modules.Where(func(d core.Document) bool { return d.Content() != "skip" }),
		modules.Content(func(d core.Document) string { return "<" + d.Content() + ">" }),
	)
	out, err := p.Run(context.Background(), core.RunConfig{}, []core.Document{doc("a"), doc("skip"), doc("b")})
	require.NoError(t, err)
	assert.Equal(t, []string{"<a>", "<b>"}, contents(out))
}

func TestBranch(t *testing.T) {
	rec := &recorder{}
	branch := modules.Branch(modules.Content(func(core.Document) string { return "changed" }), rec.module())

	in := []core.Document{doc("a"), doc("b")}
	out, err := branch.Execute(newContext(), in)
	require.NoError(t, err)

	assert.Equal(t, in, out)
	assert.Equal(t, []string{"changed", "changed"}, rec.contents)
}

func TestConcat(t *testing.T) {
	concat := modules.Concat(modules.Documents("x", "y"))

	out, err := concat.Execute(newContext(), []core.Document{doc("a")})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "x", "y"}, contents(out))
}

func TestComposites_EmptyChainIsConfigError(t *testing.T) {
	for _, m := range []core.Module{modules.Branch(), modules.Concat(), modules.FrontMatter()} {
		_, err := core.NewPipeline("p", m).Run(context.Background(), core.RunConfig{}, nil)
		assert.ErrorIs(t, err, core.ErrEmptyChain, core.ModuleName(m))
	}
}

func TestYAML(t *testing.T) {
	base := core.NewMetadata(map[string]any{"keep": "me"})
	good := core.NewDocument("title: Hello\ntags: [a, b]\nnested:\n  x: 1\n", base)
	bad := core.NewDocument("title: [unclosed\n", base)
	scalar := core.NewDocument("just a string", base)

	out, err := modules.YAML().Execute(newContext(), []core.Document{good, bad, scalar})
	require.NoError(t, err)
	require.Len(t, out, 3)

	title, _ := out[0].Metadata().String("title")
	assert.Equal(t, "Hello", title)
	tags, _ := out[0].Get("tags")
	assert.Equal(t, []any{"a", "b"}, tags)
	nested, _ := out[0].Get("nested")
	assert.Equal(t, map[string]any{"x": 1}, nested)
	keep, _ := out[0].Metadata().String("keep")
	assert.Equal(t, "me", keep)
	assert.Equal(t, good.Content(), out[0].Content(), "content is untouched")

	assert.Equal(t, bad, out[1], "malformed yaml passes through")
	assert.Equal(t, scalar, out[2], "non-mapping yaml passes through")
}

func TestYAML_KeyAndStrict(t *testing.T) {
	d := doc("count: 12345678901234567\nratio: 0.5\n")

	out, err := modules.YAML(modules.WithKey("fm"), modules.WithStrict(true)).Execute(newContext(), []core.Document{d})
	require.NoError(t, err)

	fm, ok := out[0].Get("fm")
	require.True(t, ok)
	m, ok := fm.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, json.Number("12345678901234567"), m["count"])
	assert.Equal(t, json.Number("0.5"), m["ratio"])
	assert.False(t, out[0].Metadata().Has("count"))
}

func TestTOML(t *testing.T) {
	good := doc("title = \"Hello\"\ncount = 3\n\n[author]\nname = \"Ada\"\n")
	bad := doc("title = \n")

	out, err := modules.TOML().Execute(newContext(), []core.Document{good, bad})
	require.NoError(t, err)
	require.Len(t, out, 2)

	title, _ := out[0].Metadata().String("title")
	assert.Equal(t, "Hello", title)
	count, _ := out[0].Get("count")
	assert.Equal(t, int64(3), count)
	author, _ := out[0].Get("author")
	assert.Equal(t, map[string]any{"name": "Ada"}, author)
	assert.Equal(t, bad, out[1])

	out, err = modules.TOML(modules.WithStrict(true)).Execute(newContext(), []core.Document{good})
	require.NoError(t, err)
	count, _ = out[0].Get("count")
	assert.Equal(t, json.Number("3"), count)
}

func TestJSON(t *testing.T) {
	good := doc(`{"title": "Hi", "n": 2}`)
	bad := doc(`{"title": `)
	blank := doc("   ")

	out, err := modules.JSON().Execute(newContext(), []core.Document{good, bad, blank})
	require.NoError(t, err)
	require.Len(t, out, 3)

	title, _ := out[0].Metadata().String("title")
	assert.Equal(t, "Hi", title)
	n, _ := out[0].Get("n")
	assert.Equal(t, 2.0, n)
	assert.Equal(t, bad, out[1])
	assert.Equal(t, blank, out[2])

	out, err = modules.JSON(modules.WithStrict(true)).Execute(newContext(), []core.Document{good})
	require.NoError(t, err)
	n, _ = out[0].Get("n")
	assert.Equal(t, json.Number("2"), n)
}

func TestCSV_FanOut(t *testing.T) {
	src := core.NewDocument("id,content,tags\n1,first,\"[\"\"a\"\"]\"\n2,second,[invalid\n", core.NewMetadata(map[string]any{"origin": "users.csv"}))
	other := doc("not,csv\n\"broken")

	out, err := modules.CSV().Execute(newContext(), []core.Document{src, other})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "first", out[0].Content())
	id, _ := out[0].Metadata().String("id")
	assert.Equal(t, "1", id)
	tags, _ := out[0].Get("tags")
	assert.Equal(t, []any{"a"}, tags)
	origin, _ := out[0].Metadata().String("origin")
	assert.Equal(t, "users.csv", origin)
	assert.Equal(t, src.ID(), out[0].ID())

	assert.Equal(t, "second", out[1].Content())
	tags, _ = out[1].Get("tags")
	assert.Equal(t, "[invalid", tags, "invalid json stays a string")
	assert.Equal(t, src.ID(), out[1].ID())

	assert.Equal(t, other, out[2], "malformed csv passes through")
}

func TestCSV_HeaderOnlyYieldsNothing(t *testing.T) {
	out, err := modules.CSV().Execute(newContext(), []core.Document{doc("a,b\n")})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMarkdown(t *testing.T) {
	out, err := modules.Markdown().Execute(newContext(), []core.Document{doc("# Title\n\n~~gone~~ text\n")})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Contains(t, out[0].Content(), "<h1>Title</h1>")
	assert.Contains(t, out[0].Content(), "<del>gone</del>")

	out, err = modules.Markdown(modules.WithOutputKey("html")).Execute(newContext(), []core.Document{doc("*x*")})
	require.NoError(t, err)
	assert.Equal(t, "*x*", out[0].Content())
	html, _ := out[0].Metadata().String("html")
	assert.Contains(t, html, "<em>x</em>")
}

func TestMarkdown_Options(t *testing.T) {
	src := "## Getting Started\n\n```go\nfunc main() {}\n```\n"
	out, err := modules.Markdown(modules.WithHighlighting(), modules.WithHeadingIDs()).Execute(newContext(), []core.Document{doc(src)})
	require.NoError(t, err)

	html := out[0].Content()
	assert.Contains(t, html, `<h2 id="getting-started">Getting Started</h2>`)
	assert.Contains(t, html, `class="chroma"`)

	out, err = modules.Markdown(modules.WithHardWraps()).Execute(newContext(), []core.Document{doc("a\nb")})
	require.NoError(t, err)
	assert.Contains(t, out[0].Content(), "<br>")
}
