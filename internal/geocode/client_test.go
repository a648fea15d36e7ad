package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/doormap/internal/fetcher"
)

const acceptedXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<ns2:SearchBatch xmlns:ns2="http://www.navteq.com/lbsp/Search-Batch/1">
  <Response>
    <MetaInfo><RequestId>8fVxJ1b2QzeHq3</RequestId></MetaInfo>
    <Status>accepted</Status>
    <TotalCount>0</TotalCount>
    <ValidCount>0</ValidCount>
    <InvalidCount>0</InvalidCount>
    <ProcessedCount>0</ProcessedCount>
    <PendingCount>0</PendingCount>
    <SuccessCount>0</SuccessCount>
    <ErrorCount>0</ErrorCount>
  </Response>
</ns2:SearchBatch>`

func newTestFetcher() fetcher.Fetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{RateLimit: 1000})
}

func TestSubmit(t *testing.T) {
	var (
		gotQuery url.Values
		gotBody  string
		gotCT    string
		gotMeth  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMeth = r.Method
		gotQuery = r.URL.Query()
		gotCT = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(acceptedXML))
	}))
	defer srv.Close()

	c := NewClient(newTestFetcher(),
		WithURL(srv.URL+"/6.2/jobs"),
		WithCredentials("my-app", "my-code"),
		WithMailTo("ops@example.com"),
	)

	body := "recId|searchText|country\n1|ATATÜRK Caddesi 12 BARIŞ Beylikdüzü Istanbul|TUR"
	job, err := c.Submit(context.Background(), body)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMeth)
	assert.Equal(t, body, gotBody)
	assert.Contains(t, gotCT, "text/plain")

	assert.Equal(t, "8", gotQuery.Get("gen"))
	assert.Equal(t, "my-app", gotQuery.Get("app_id"))
	assert.Equal(t, "my-code", gotQuery.Get("app_code"))
	assert.Equal(t, "run", gotQuery.Get("action"))
	assert.Equal(t, "ops@example.com", gotQuery.Get("mailto"))
	assert.Equal(t, "true", gotQuery.Get("header"))
	assert.Equal(t, "|", gotQuery.Get("indelim"))
	assert.Equal(t, "|", gotQuery.Get("outdelim"))
	assert.Equal(t, OutputColumns, gotQuery.Get("outcols"))
	assert.Equal(t, "false", gotQuery.Get("outputCombined"))

	assert.Equal(t, "8fVxJ1b2QzeHq3", job.RequestID)
	assert.Equal(t, "accepted", job.Status)
	assert.Equal(t, 0, job.TotalCount)
	assert.NotEmpty(t, job.Raw)
}

func TestSubmit_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("<Error>invalid credentials</Error>"))
	}))
	defer srv.Close()

	c := NewClient(newTestFetcher(), WithURL(srv.URL))
	_, err := c.Submit(context.Background(), BatchHeader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geocode: submit batch")
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestSubmit_NoRequestID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<SearchBatch><Response><Status>failed</Status></Response></SearchBatch>"))
	}))
	defer srv.Close()

	c := NewClient(newTestFetcher(), WithURL(srv.URL))
	_, err := c.Submit(context.Background(), BatchHeader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no request id")
}

func TestSubmit_BadXML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not xml <"))
	}))
	defer srv.Close()

	c := NewClient(newTestFetcher(), WithURL(srv.URL))
	_, err := c.Submit(context.Background(), BatchHeader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse submit response")
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(newTestFetcher())
	assert.Equal(t, DefaultBatchURL, c.url)
	assert.Empty(t, c.appID)
}
