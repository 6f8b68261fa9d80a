package topics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Page is one raw page of the posts listing. The body is kept unparsed so
// the normalizer can resolve whichever shape the site returns. TotalPages is
// taken from the X-WP-TotalPages header, 0 when the header is absent.
type Page struct {
	Body       []byte
	TotalPages int
}

type PostsClient interface {
	FetchPage(ctx context.Context, page, perPage int, after time.Time) (Page, error)
}

type wpClient struct {
	baseURL string
	http    *http.Client
}

// NewWordPressClient returns a PostsClient for a WordPress REST API rooted
// at baseURL (the site URL, without the /wp-json suffix).
func NewWordPressClient(baseURL string, httpClient *http.Client) PostsClient {
	return &wpClient{
		baseURL: baseURL,
		http:    httpClient,
	}
}

func (c *wpClient) FetchPage(ctx context.Context, page, perPage int, after time.Time) (Page, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return Page{}, fmt.Errorf("invalid base URL: %w", err)
	}
	u = u.JoinPath("wp-json", "wp", "v2", "posts")

	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("_embed", "wp:term,author")
	if !after.IsZero() {
		q.Set("after", after.UTC().Format(time.RFC3339))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Page{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Page{}, fmt.Errorf("wordpress returned status %d for page %d", resp.StatusCode, page)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Page{}, err
	}

	totalPages, _ := strconv.Atoi(resp.Header.Get("X-WP-TotalPages"))

	return Page{Body: body, TotalPages: totalPages}, nil
}
