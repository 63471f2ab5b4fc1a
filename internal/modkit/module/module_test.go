package module

import (
	"strings"
	"sync"
	"testing"

	phttp "arguxai/internal/platform/net/http"
)

type issueReader interface{ Open() int }

type reader struct{ n int }

func (r reader) Open() int { return r.n }

type fakeModule struct {
	name  string
	ports any
}

func (m fakeModule) Name() string             { return m.name }
func (m fakeModule) Ports() any               { return m.ports }
func (m fakeModule) MountRoutes(phttp.Router) {}

func TestPortsOf(t *testing.T) {
	type bundle struct {
		Count  int
		Reader issueReader
	}
	type hidden struct{ r issueReader }

	cases := []struct {
		name  string
		ports any
		want  int
		ok    bool
	}{
		{"nil", nil, 0, false},
		{"direct", reader{3}, 3, true},
		{"struct field", bundle{Count: 1, Reader: reader{7}}, 7, true},
		{"pointer to struct", &bundle{Reader: reader{9}}, 9, true},
		{"unexported field ignored", hidden{r: reader{1}}, 0, false},
		{"scalar", 5, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := PortsOf[issueReader](fakeModule{name: "issues", ports: tc.ports})
			if ok != tc.ok {
				t.Fatalf("ok = %v", ok)
			}
			if ok && got.Open() != tc.want {
				t.Fatalf("Open() = %d", got.Open())
			}
		})
	}
}

func TestMustPortsOfNamesModule(t *testing.T) {
	defer func() {
		msg, _ := recover().(string)
		if !strings.Contains(msg, "detect") {
			t.Fatalf("panic = %q", msg)
		}
	}()
	MustPortsOf[issueReader](fakeModule{name: "detect"})
}

func TestRegistry(t *testing.T) {
	Reset()
	defer Reset()

	Register("issues", reader{1})
	Register("issues", reader{2})
	got, ok := PortsAs[reader]("issues")
	if !ok || got.n != 2 {
		t.Fatalf("overwrite: %v %v", got, ok)
	}
	if _, ok := PortsAs[int]("issues"); ok {
		t.Fatalf("type mismatch should be false")
	}
	if _, ok := PortsAs[reader]("missing"); ok {
		t.Fatalf("missing should be false")
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) { defer wg.Done(); Register("detect", reader{i}) }(i)
		go func() { defer wg.Done(); _, _ = PortsAs[reader]("detect") }()
	}
	wg.Wait()
	if len(Names()) != 2 {
		t.Fatalf("names = %v", Names())
	}
}
