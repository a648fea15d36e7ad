package geocode

import (
	"context"
	"encoding/xml"
	"net/url"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/doormap/internal/fetcher"
)

// DefaultBatchURL is the batch geocoder jobs endpoint.
const DefaultBatchURL = "https://batch.geocoder.api.here.com/6.2/jobs"

// OutputColumns are the columns requested from the batch geocoder.
const OutputColumns = "displayLatitude,displayLongitude,locationLabel,houseNumber,street,district,city,postalCode,county,state,country"

// Job is the handle returned when a batch is accepted. Results are retrieved
// out of band.
type Job struct {
	RequestID  string
	Status     string
	TotalCount int
	Raw        []byte
}

// Option configures the batch client.
type Option func(*Client)

// WithURL overrides the jobs endpoint.
func WithURL(u string) Option {
	return func(c *Client) {
		c.url = u
	}
}

// WithCredentials sets the application id and code sent with each job.
func WithCredentials(appID, appCode string) Option {
	return func(c *Client) {
		c.appID = appID
		c.appCode = appCode
	}
}

// WithMailTo sets the address notified when a job completes.
func WithMailTo(addr string) Option {
	return func(c *Client) {
		c.mailto = addr
	}
}

// Client submits batch geocoding jobs.
type Client struct {
	f       fetcher.Fetcher
	url     string
	appID   string
	appCode string
	mailto  string
}

// NewClient creates a batch geocoding client.
func NewClient(f fetcher.Fetcher, opts ...Option) *Client {
	c := &Client{f: f, url: DefaultBatchURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) params() url.Values {
	return url.Values{
		"gen":            {"8"},
		"app_id":         {c.appID},
		"app_code":       {c.appCode},
		"action":         {"run"},
		"mailto":         {c.mailto},
		"header":         {"true"},
		"indelim":        {"|"},
		"outdelim":       {"|"},
		"outcols":        {OutputColumns},
		"outputCombined": {"false"},
	}
}

type searchBatch struct {
	Response struct {
		MetaInfo struct {
			RequestID string `xml:"RequestId"`
		} `xml:"MetaInfo"`
		Status     string `xml:"Status"`
		TotalCount int    `xml:"TotalCount"`
	} `xml:"Response"`
}

// Submit posts a batch body and returns the job handle.
func (c *Client) Submit(ctx context.Context, body string) (*Job, error) {
	data, err := c.f.Post(ctx, c.url, c.params(), "text/plain; charset=utf-8", []byte(body))
	if err != nil {
		return nil, eris.Wrap(err, "geocode: submit batch")
	}

	var sb searchBatch
	if err := xml.Unmarshal(data, &sb); err != nil {
		return nil, eris.Wrap(err, "geocode: parse submit response")
	}
	job := &Job{
		RequestID:  sb.Response.MetaInfo.RequestID,
		Status:     sb.Response.Status,
		TotalCount: sb.Response.TotalCount,
		Raw:        data,
	}
	if job.RequestID == "" {
		return nil, eris.Errorf("geocode: submit response has no request id: %s", string(data))
	}

	zap.L().Info("batch geocoding job submitted",
		zap.String("request_id", job.RequestID),
		zap.String("status", job.Status),
	)
	return job, nil
}
