package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/mapfront/mapfront-viewer/internal/domain"
)

type agentStub struct {
	*httptest.Server

	mu       sync.Mutex
	requests []url.Values
	status   int
	body     string
}

func newAgentStub(t *testing.T, status int, body string) *agentStub {
	t.Helper()
	stub := &agentStub{status: status, body: body}
	stub.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		stub.mu.Lock()
		stub.requests = append(stub.requests, r.PostForm)
		stub.mu.Unlock()
		w.WriteHeader(stub.status)
		w.Write([]byte(stub.body))
	}))
	t.Cleanup(stub.Close)
	return stub
}

func (s *agentStub) client(t *testing.T) *Client {
	t.Helper()
	return NewClient(zap.NewNop().Sugar(), s.URL)
}

func TestCreateSessionSendsCommonParameters(t *testing.T) {
	stub := newAgentStub(t, http.StatusOK, `{"Session":"sess-42"}`)
	c := stub.client(t)

	session, err := c.CreateSession(context.Background(), "Anonymous", "")
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, "sess-42", session)

	if assert.Len(t, stub.requests, 1) {
		form := stub.requests[0]
		assert.Equal(t, "CREATESESSION", form.Get("OPERATION"))
		assert.Equal(t, "Anonymous", form.Get("USERNAME"))
		assert.Equal(t, "3.0.0", form.Get("VERSION"))
		assert.Equal(t, "application/json", form.Get("FORMAT"))
		assert.Equal(t, "mapfront-viewer", form.Get("CLIENTAGENT"))
	}
}

func TestFaultsMapToDomainSentinels(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{
			name: "resource not found",
			body: `{"message":"MgResourceNotFoundException occurred","detail":"Resource was not found"}`,
			want: domain.ErrResourceNotFound,
		},
		{
			name: "session expired",
			body: `{"message":"MgSessionExpiredException occurred","detail":"Session has expired"}`,
			want: domain.ErrSessionExpired,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := newAgentStub(t, http.StatusBadRequest, tc.body)
			c := stub.client(t)

			_, err := c.GetWebLayout(context.Background(), "Library://Foo.WebLayout", "sess")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestUnknownFaultKeepsAgentMessage(t *testing.T) {
	stub := newAgentStub(t, http.StatusInternalServerError, `{"message":"MgUnclassifiedException"}`)
	c := stub.client(t)

	_, err := c.CreateSession(context.Background(), "Anonymous", "")
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "MgUnclassifiedException")
	}
}

func TestSessionTimeoutIsCached(t *testing.T) {
	stub := newAgentStub(t, http.StatusOK, `{"Timeout":1200}`)
	c := stub.client(t)

	for i := 0; i < 3; i++ {
		timeout, err := c.GetServerSessionTimeout(context.Background(), "sess")
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, 1200, timeout)
	}
	assert.Len(t, stub.requests, 1)
}

func TestLayoutResourceIsCachedPerSession(t *testing.T) {
	stub := newAgentStub(t, http.StatusOK, `{"Title":"Cached Layout","Map":{"ResourceId":"Library://M.MapDefinition"}}`)
	c := stub.client(t)

	for i := 0; i < 2; i++ {
		wl, err := c.GetWebLayout(context.Background(), "Library://Foo.WebLayout", "sess-a")
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, "Cached Layout", wl.Title)
	}
	assert.Len(t, stub.requests, 1)

	_, err := c.GetWebLayout(context.Background(), "Library://Foo.WebLayout", "sess-b")
	assert.NoError(t, err)
	assert.Len(t, stub.requests, 2)
}

func TestQueryMapFeaturesDecodesSelection(t *testing.T) {
	stub := newAgentStub(t, http.StatusOK,
		`{"SelectedFeatures":{"SelectedLayer":[{"@name":"Parcels"}]},"FeatureSet":{"Layer":[]},"Hyperlink":"http://example.com","Tooltip":"Parcel 12"}`)
	c := stub.client(t)

	res, err := c.QueryMapFeatures(context.Background(), QueryMapFeaturesOptions{
		MapName:     "Sheboygan",
		Session:     "sess",
		Persist:     0,
		Geometry:    "POINT(1 2)",
		MaxFeatures: 1,
		RequestData: QueryTooltip | QueryHyperlink,
	})
	if !assert.NoError(t, err) {
		return
	}
	assert.True(t, res.HasSelection())
	assert.Equal(t, "Parcel 12", res.Tooltip)
	assert.Equal(t, "http://example.com", res.Hyperlink)
	assert.JSONEq(t, `{"SelectedLayer":[{"@name":"Parcels"}]}`, string(res.SelectedFeatures))

	if assert.Len(t, stub.requests, 1) {
		form := stub.requests[0]
		assert.Equal(t, "QUERYMAPFEATURES", form.Get("OPERATION"))
		assert.Equal(t, "12", form.Get("REQUESTDATA"))
	}
}

func TestMapImageURL(t *testing.T) {
	c := NewClient(zap.NewNop().Sugar(), "http://host/mapagent/mapagent.fcgi")

	raw := c.MapImageURL(MapImageParams{
		MapName:        "Sheboygan",
		Session:        "sess",
		Format:         "PNG8",
		Behavior:       BehaviorSelected | BehaviorBaseImage,
		SelectionColor: "0x0000FFC0",
		Seq:            1700000000000,
	})

	u, err := url.Parse(raw)
	if !assert.NoError(t, err) {
		return
	}
	q := u.Query()
	assert.Equal(t, "GETDYNAMICMAPOVERLAYIMAGE", q.Get("OPERATION"))
	assert.Equal(t, "2.0.0", q.Get("VERSION"))
	assert.Equal(t, "Sheboygan", q.Get("MAPNAME"))
	assert.Equal(t, "PNG8", q.Get("FORMAT"))
	assert.Equal(t, "3", q.Get("BEHAVIOR"))
	assert.Equal(t, "0x0000FFC0", q.Get("SELECTIONCOLOR"))
	assert.Equal(t, "1700000000000", q.Get("SEQ"))

	plain := c.MapImageURL(MapImageParams{MapName: "Sheboygan", Session: "sess", Format: "PNG", Behavior: BehaviorBaseImage})
	assert.NotContains(t, plain, "SEQ=")
	assert.NotContains(t, plain, "SELECTIONCOLOR=")
}

func TestGetLocaleBundle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/strings/de.json") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"SESSION_EXPIRED":"Sitzung abgelaufen"}`))
	}))
	defer srv.Close()

	bundle, err := GetLocaleBundle(context.Background(), srv.URL, "de")
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, "Sitzung abgelaufen", bundle["SESSION_EXPIRED"])

	_, err = GetLocaleBundle(context.Background(), srv.URL, "fr")
	assert.Error(t, err)
}
