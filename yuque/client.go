// Package yuque reads the public repositories and documents of a Yuque user.
package yuque

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gear6io/airbus/config"
	"github.com/gear6io/airbus/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// PageSize is the number of documents requested per page
const PageSize = 100

// TokenHeader carries the API token
const TokenHeader = "X-Auth-Token"

// Repo is a knowledge base owned by the user
type Repo struct {
	Slug   string
	Name   string
	Public bool
}

// Doc is a public document with its browser URL
type Doc struct {
	Repo  string
	Slug  string
	Title string
	URL   string
}

// ProgressFunc is called after each repository with the number done and the total
type ProgressFunc func(done, total int)

// Client talks to the Yuque v2 API
type Client struct {
	cfg     config.YuqueConfig
	client  *http.Client
	logger  zerolog.Logger
	baseURL string
	siteURL string
}

// NewClient creates a client for cfg.UID authenticated with cfg.Token
func NewClient(cfg config.YuqueConfig, logger zerolog.Logger) (*Client, error) {
	if cfg.Token == "" || cfg.UID == "" {
		return nil, errors.New(ErrCredentialsRequired, "yuque token and uid are required", nil)
	}

	baseURL := strings.TrimSuffix(cfg.APIURL, "/")
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, errors.New(ErrConfigInvalid, "invalid yuque api url", err).AddContext("api_url", cfg.APIURL)
	}

	return &Client{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With().Str("uid", cfg.UID).Logger(),
		baseURL: baseURL,
		siteURL: strings.TrimSuffix(cfg.SiteURL, "/"),
	}, nil
}

// Repos returns the public repositories of the user
func (c *Client) Repos(ctx context.Context) ([]Repo, error) {
	endpoint := fmt.Sprintf("%s/users/%s/repos", c.baseURL, url.PathEscape(c.cfg.UID))

	data, err := c.getData(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var repos []Repo
	for _, item := range data.Array() {
		if item.Get("public").Int() != 1 {
			continue
		}
		repos = append(repos, Repo{
			Slug:   item.Get("slug").String(),
			Name:   item.Get("name").String(),
			Public: true,
		})
	}

	c.logger.Debug().Int("repos", len(repos)).Msg("Fetched public repos")
	return repos, nil
}

// Docs returns the public documents of every public repository, in repository order
func (c *Client) Docs(ctx context.Context, progress ProgressFunc) ([]Doc, error) {
	repos, err := c.Repos(ctx)
	if err != nil {
		return nil, err
	}

	var docs []Doc
	for i, repo := range repos {
		repoDocs, err := c.RepoDocs(ctx, repo.Slug)
		if err != nil {
			return nil, err
		}
		docs = append(docs, repoDocs...)

		if progress != nil {
			progress(i+1, len(repos))
		}
	}

	c.logger.Info().Int("repos", len(repos)).Int("docs", len(docs)).Msg("Fetched public docs")
	return docs, nil
}

// RepoDocs pages through one repository and keeps its public documents
func (c *Client) RepoDocs(ctx context.Context, repo string) ([]Doc, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/docs", c.baseURL, url.PathEscape(c.cfg.UID), url.PathEscape(repo))

	var docs []Doc
	for offset := 0; ; offset += PageSize {
		query := url.Values{}
		query.Set("offset", strconv.Itoa(offset))
		query.Set("limit", strconv.Itoa(PageSize))

		data, err := c.getData(ctx, endpoint, query)
		if err != nil {
			return nil, err
		}

		page := data.Array()
		for _, item := range page {
			if item.Get("public").Int() != 1 {
				continue
			}
			slug := item.Get("slug").String()
			docs = append(docs, Doc{
				Repo:  repo,
				Slug:  slug,
				Title: item.Get("title").String(),
				URL:   c.DocURL(repo, slug),
			})
		}

		if len(page) < PageSize {
			return docs, nil
		}
	}
}

// DocURL is the browser address of a document
func (c *Client) DocURL(repo, slug string) string {
	return fmt.Sprintf("%s/%s/%s/%s", c.siteURL, c.cfg.UID, repo, slug)
}

// getData performs a GET and returns the "data" array of the response
func (c *Client) getData(ctx context.Context, endpoint string, query url.Values) (gjson.Result, error) {
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return gjson.Result{}, errors.New(ErrRequestFailed, "failed to create request", err).AddContext("url", endpoint)
	}
	req.Header.Set(TokenHeader, c.cfg.Token)
	req.Header.Set("User-Agent", "airbus")

	resp, err := c.client.Do(req)
	if err != nil {
		return gjson.Result{}, errors.New(ErrRequestFailed, "yuque request failed", err).AddContext("url", endpoint)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, errors.New(ErrRequestFailed, "failed to read response", err).AddContext("url", endpoint)
	}

	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, errors.Newf(ErrUnexpectedStatus, "yuque returned status %d: %s", resp.StatusCode, gjson.GetBytes(body, "message").String()).
			AddContext("url", endpoint).
			AddContext("status", strconv.Itoa(resp.StatusCode))
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, errors.New(ErrResponseInvalid, "yuque response is not valid JSON", nil).AddContext("url", endpoint)
	}

	data := gjson.GetBytes(body, "data")
	if !data.IsArray() {
		return gjson.Result{}, errors.New(ErrResponseInvalid, "yuque response has no data list", nil).AddContext("url", endpoint)
	}
	return data, nil
}
