package report

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/aluiziolira/edgereport/edgerc"
)

const mockEndpoint = `=~^https://akab-host\.luna\.akamaiapis\.net/reporting-api/v1/reports/urlbytes-by-url/versions/1/report-data`

func testCredentials() *edgerc.Credentials {
	return &edgerc.Credentials{
		Host:         "https://akab-host.luna.akamaiapis.net",
		ClientToken:  "akab-client-token",
		ClientSecret: "secret",
		AccessToken:  "akab-access-token",
	}
}

func newTestClient(transport *httpmock.MockTransport) *Client {
	return NewClient(testCredentials(), "urlbytes-by-url", 1,
		WithHTTPClient(&http.Client{Transport: transport}),
		WithMetrics(NewMetrics()),
		WithTimeout(5*time.Second),
	)
}

func testQuery() Query {
	return Query{Start: "2025-07-01T00:00:00Z", End: "2025-07-02T00:00:00Z", Interval: "DAY"}
}

func testBody() RequestBody {
	return RequestBody{
		ObjectType: "cpcode",
		ObjectIDs:  []string{"1836353"},
		Metrics:    []string{"allEdgeBytes"},
		Limit:      25000,
	}
}

func TestClientFetchDecodesPayload(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("POST", mockEndpoint, func(req *http.Request) (*http.Response, error) {
		if got := req.URL.Query().Get("start"); got != "2025-07-01T00:00:00Z" {
			t.Errorf("start param=%q", got)
		}
		if got := req.URL.Query().Get("interval"); got != "DAY" {
			t.Errorf("interval param=%q", got)
		}
		if req.Header.Get("Authorization") == "" {
			t.Errorf("request should carry an EdgeGrid authorization header")
		}
		raw, _ := io.ReadAll(req.Body)
		var body RequestBody
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("request body: %v", err)
		}
		if body.ObjectType != "cpcode" || body.Limit != 25000 {
			t.Errorf("body=%+v", body)
		}
		return httpmock.NewStringResponse(200, `{"columns":[{"name":"url"}],"rows":[["a.com/x"]]}`), nil
	})

	payload, err := newTestClient(transport).Fetch(context.Background(), testQuery(), testBody())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		t.Fatalf("payload=%T, want object", payload)
	}
	if _, ok := obj["columns"]; !ok {
		t.Fatalf("payload=%v", obj)
	}
}

func TestClientFetchErrors(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
		check     func(t *testing.T, err error)
	}{
		{
			name:      "http status carries body",
			responder: httpmock.NewStringResponder(403, `{"title":"forbidden"}`),
			check: func(t *testing.T, err error) {
				var status StatusError
				if !errors.As(err, &status) {
					t.Fatalf("err=%v, want StatusError", err)
				}
				if status.Code != 403 || string(status.Body) != `{"title":"forbidden"}` {
					t.Fatalf("status=%+v", status)
				}
			},
		},
		{
			name:      "empty body",
			responder: httpmock.NewStringResponder(200, "  \n"),
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrEmptyBody) {
					t.Fatalf("err=%v, want ErrEmptyBody", err)
				}
			},
		},
		{
			name:      "non-json body keeps raw text",
			responder: httpmock.NewStringResponder(200, "<html>maintenance</html>"),
			check: func(t *testing.T, err error) {
				var notJSON NotJSONError
				if !errors.As(err, &notJSON) {
					t.Fatalf("err=%v, want NotJSONError", err)
				}
				if string(notJSON.Raw) != "<html>maintenance</html>" {
					t.Fatalf("raw=%q", notJSON.Raw)
				}
			},
		},
		{
			name:      "timeout",
			responder: httpmock.NewErrorResponder(context.DeadlineExceeded),
			check: func(t *testing.T, err error) {
				var timeout ErrTimeout
				if !errors.As(err, &timeout) {
					t.Fatalf("err=%v, want ErrTimeout", err)
				}
				if ExitCode(err) != 2 {
					t.Fatalf("exit code=%d, want 2", ExitCode(err))
				}
			},
		},
		{
			name:      "connection failure",
			responder: httpmock.NewErrorResponder(errors.New("connection refused")),
			check: func(t *testing.T, err error) {
				var conn ErrConnection
				if !errors.As(err, &conn) {
					t.Fatalf("err=%v, want ErrConnection", err)
				}
				if ExitCode(err) != 2 {
					t.Fatalf("exit code=%d, want 2", ExitCode(err))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := httpmock.NewMockTransport()
			transport.RegisterResponder("POST", mockEndpoint, tt.responder)

			_, err := newTestClient(transport).Fetch(context.Background(), testQuery(), testBody())
			if err == nil {
				t.Fatalf("expected error")
			}
			tt.check(t, err)
		})
	}
}

func TestExitCodeProtocolErrors(t *testing.T) {
	if got := ExitCode(StatusError{Code: 500}); got != 1 {
		t.Fatalf("status exit code=%d, want 1", got)
	}
	if got := ExitCode(NotJSONError{Err: errors.New("x")}); got != 1 {
		t.Fatalf("non-json exit code=%d, want 1", got)
	}
}
