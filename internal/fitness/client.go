package fitness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/2beens/ergolog/internal/records"
	"github.com/2beens/ergolog/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// https://log.concept2.com/developers/documentation

const (
	DefaultBaseURL = "https://log.concept2.com"

	resultDateLayout = "2006-01-02 15:04:05" // logbook dates are UTC
)

var ErrNotAuthenticated = errors.New("logbook client not authenticated")

// apiResult is the wire shape of one finished workout in the logbook API.
// The elapsed time comes in tenths of a second.
type apiResult struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Distance int    `json:"distance"`
	Time     int64  `json:"time"`
	Date     string `json:"date"`
}

type resultsResponse struct {
	Data []apiResult `json:"data"`
	Meta struct {
		Pagination struct {
			TotalPages  int `json:"total_pages"`
			CurrentPage int `json:"current_page"`
		} `json:"pagination"`
	} `json:"meta"`
}

// Client talks to the logbook API on behalf of the single account this
// service is paired with. It starts unauthenticated; the auth handler
// drives the OAuth2 dance and hands the obtained token over via SetToken.
type Client struct {
	baseURL    string
	conf       *oauth2.Config
	httpClient *http.Client
	authedHTTP *http.Client
}

func NewClient(
	baseURL string,
	clientID string,
	clientSecret string,
	redirectURL string,
	httpClient *http.Client,
) *Client {
	return &Client{
		baseURL: baseURL,
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"user:read,results:read"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  baseURL + "/oauth/authorize",
				TokenURL: baseURL + "/oauth/access_token",
			},
		},
		httpClient: httpClient,
	}
}

func (c *Client) AuthURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

// Exchange trades the authorization code for a token and switches the
// client to authenticated requests. The oauth2 transport refreshes the
// token on its own from here on.
func (c *Client) Exchange(ctx context.Context, code string) error {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	c.SetToken(token)
	return nil
}

func (c *Client) SetToken(token *oauth2.Token) {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient)
	c.authedHTTP = c.conf.Client(ctx, token)
}

func (c *Client) IsAuthenticated() bool {
	return c.authedHTTP != nil
}

// FetchResults pulls all finished workouts updated after the given
// moment, walking the paginated results endpoint to the end. A zero
// time fetches the full history.
func (c *Client) FetchResults(ctx context.Context, updatedAfter time.Time) (_ []records.Result, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "fitness.client.fetchResults")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if c.authedHTTP == nil {
		return nil, ErrNotAuthenticated
	}

	var results []records.Result
	for page := 1; ; page++ {
		resp, err := c.fetchResultsPage(ctx, updatedAfter, page)
		if err != nil {
			return nil, err
		}

		for _, r := range resp.Data {
			result, ok := toResult(r)
			if !ok {
				continue
			}
			results = append(results, result)
		}

		if page >= resp.Meta.Pagination.TotalPages {
			break
		}
	}

	log.Debugf("logbook client: fetched %d results updated after %s", len(results), updatedAfter)

	return results, nil
}

func (c *Client) fetchResultsPage(ctx context.Context, updatedAfter time.Time, page int) (*resultsResponse, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	if !updatedAfter.IsZero() {
		query.Set("updated_after", updatedAfter.UTC().Format(resultDateLayout))
	}
	resultsURL := fmt.Sprintf("%s/api/users/me/results?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultsURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.authedHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("logbook api responded with status %d", resp.StatusCode)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read logbook api response: %w", err)
	}

	var resultsResp resultsResponse
	if err := json.Unmarshal(respBytes, &resultsResp); err != nil {
		return nil, fmt.Errorf("unmarshal logbook api response: %w", err)
	}

	return &resultsResp, nil
}

// toResult maps a wire result to the domain one. Workout types outside
// of the supported sports are skipped, not an error - the logbook
// reports more machine types than this service cares about.
func toResult(r apiResult) (records.Result, bool) {
	var sport records.Sport
	switch r.Type {
	case "rower":
		sport = records.SportRower
	case "skierg":
		sport = records.SportSkiErg
	case "bike":
		sport = records.SportBike
	default:
		log.Tracef("logbook client: skipping result %d of unsupported type %q", r.ID, r.Type)
		return records.Result{}, false
	}

	date, err := time.Parse(resultDateLayout, r.Date)
	if err != nil {
		log.Errorf("logbook client: skipping result %d, unparseable date %q: %s", r.ID, r.Date, err)
		return records.Result{}, false
	}

	return records.Result{
		ID:       r.ID,
		Sport:    sport,
		Distance: r.Distance,
		Time:     float64(r.Time) / 10, // tenths of a second to seconds
		Date:     date,
	}, true
}
