package yuque

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gear6io/airbus/config"
	"github.com/gear6io/airbus/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDoc struct {
	Slug   string `json:"slug"`
	Title  string `json:"title"`
	Public int    `json:"public"`
}

// fakeYuque serves the repos and docs endpoints for user "someone"
func fakeYuque(t *testing.T, docs map[string][]fakeDoc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/users/someone/repos", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(TokenHeader) != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"Unauthorized"}`)
			return
		}
		fmt.Fprint(w, `{"data":[
			{"slug":"notes","name":"Notes","public":1},
			{"slug":"private","name":"Private","public":0},
			{"slug":"big","name":"Big","public":1}
		]}`)
	})
	for repo, list := range docs {
		list := list
		mux.HandleFunc("/api/v2/repos/someone/"+repo+"/docs", func(w http.ResponseWriter, r *http.Request) {
			offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			end := offset + limit
			if end > len(list) {
				end = len(list)
			}
			page := []fakeDoc{}
			if offset < len(list) {
				page = list[offset:end]
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"data": page})
		})
	}

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server, token string) *Client {
	t.Helper()
	c, err := NewClient(config.YuqueConfig{
		Token:   token,
		UID:     "someone",
		APIURL:  server.URL + "/api/v2",
		SiteURL: "https://www.yuque.com/",
		Timeout: 5 * time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestRepos(t *testing.T) {
	server := fakeYuque(t, nil)
	c := newTestClient(t, server, "secret")

	repos, err := c.Repos(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Repo{
		{Slug: "notes", Name: "Notes", Public: true},
		{Slug: "big", Name: "Big", Public: true},
	}, repos)
}

func TestDocs(t *testing.T) {
	big := make([]fakeDoc, 0, 250)
	for i := 0; i < 250; i++ {
		big = append(big, fakeDoc{Slug: fmt.Sprintf("d%03d", i), Public: 1 - i%50/49})
	}
	server := fakeYuque(t, map[string][]fakeDoc{
		"notes": {
			{Slug: "intro", Title: "Intro", Public: 1},
			{Slug: "draft", Title: "Draft", Public: 0},
		},
		"big": big,
	})
	c := newTestClient(t, server, "secret")

	var progress [][2]int
	docs, err := c.Docs(context.Background(), func(done, total int) {
		progress = append(progress, [2]int{done, total})
	})
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, progress)
	assert.Equal(t, Doc{Repo: "notes", Slug: "intro", Title: "Intro", URL: "https://www.yuque.com/someone/notes/intro"}, docs[0])

	// Every 50th doc of "big" is private: d049, d099, ... d249
	assert.Len(t, docs, 1+250-5)
	assert.Equal(t, "https://www.yuque.com/someone/big/d249", c.DocURL("big", "d249"))
	assert.Equal(t, "https://www.yuque.com/someone/big/d248", docs[len(docs)-1].URL)
}

func TestClientErrors(t *testing.T) {
	t.Run("MissingCredentials", func(t *testing.T) {
		_, err := NewClient(config.YuqueConfig{UID: "someone"}, zerolog.Nop())
		assert.True(t, errors.HasCode(err, ErrCredentialsRequired))
	})

	t.Run("BadAPIURL", func(t *testing.T) {
		_, err := NewClient(config.YuqueConfig{Token: "t", UID: "u", APIURL: "::nope"}, zerolog.Nop())
		assert.True(t, errors.HasCode(err, ErrConfigInvalid))
	})

	t.Run("Unauthorized", func(t *testing.T) {
		c := newTestClient(t, fakeYuque(t, nil), "wrong")

		_, err := c.Repos(context.Background())
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, ErrUnexpectedStatus))
		assert.Equal(t, "401", errors.GetContext(err)["status"])
		assert.Contains(t, err.Error(), "Unauthorized")
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data": [`)
		}))
		defer server.Close()

		_, err := newTestClient(t, server, "secret").Repos(context.Background())
		assert.True(t, errors.HasCode(err, ErrResponseInvalid))
	})

	t.Run("MissingData", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"message": "ok"}`)
		}))
		defer server.Close()

		_, err := newTestClient(t, server, "secret").Repos(context.Background())
		assert.True(t, errors.HasCode(err, ErrResponseInvalid))
	})
}
