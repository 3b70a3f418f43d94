package query

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rangeq/internal/geom"
	"rangeq/internal/scan"
)

type stubQuerier struct {
	points map[string][]geom.Point
}

func (s *stubQuerier) Query(_ context.Context, dataset string, from, to geom.Point) ([]geom.Point, error) {
	stored, ok := s.points[dataset]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q", dataset)
	}
	return scan.Points(stored, from, to), nil
}

func (s *stubQuerier) Points(dataset string) ([]geom.Point, error) {
	stored, ok := s.points[dataset]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q", dataset)
	}
	return stored, nil
}

func (s *stubQuerier) Datasets() []string {
	var names []string
	for name := range s.points {
		names = append(names, name)
	}
	return names
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	querier := &stubQuerier{points: map[string][]geom.Point{
		"grid": {{4, 6}, {1, 5}, {2, 7}, {3, 8}, {1, 1}, {2, 5}, {6, 1}, {4, 4}},
	}}
	h, err := NewHandler(&Config{RequestTimeout: 5 * time.Second, MaxBoxesLen: 4, AllowVerify: true}, querier)
	if err != nil {
		t.Fatalf("unable create handler: %v", err)
	}
	return h
}

func postJSON(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/query", strings.NewReader(body))
	req.Header.Set("content-type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandler_Query(t *testing.T) {
	h := newTestHandler(t)
	w := postJSON(t, h, `{"dataset": "grid", "boxes": [{"from": [1, 1], "to": [2, 7]}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status got: %v, expected: %v, body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unable decode response: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("response boxes got: %v, expected: %v", len(resp.Data), 1)
	}
	if resp.Data[0].Count != 4 {
		t.Errorf("reported count got: %v, expected: %v", resp.Data[0].Count, 4)
	}
}

func TestHandler_QueryVerify(t *testing.T) {
	h := newTestHandler(t)
	w := postJSON(t, h, `{"dataset": "grid", "verify": true, "boxes": [{"from": [1, 1], "to": [7, 7]}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status got: %v, expected: %v, body: %s", w.Code, http.StatusOK, w.Body.String())
	}
}

func TestHandler_QueryErrors(t *testing.T) {
	h := newTestHandler(t)
	tests := []struct {
		name     string
		body     string
		method   string
		expected int
	}{
		{name: "unknown_dataset", body: `{"dataset": "nope", "boxes": [{"from": [1], "to": [2]}]}`, expected: http.StatusInternalServerError},
		{name: "no_boxes", body: `{"dataset": "grid", "boxes": []}`, expected: http.StatusBadRequest},
		{
			name:     "too_many_boxes",
			body:     `{"dataset": "grid", "boxes": [{}, {}, {}, {}, {}]}`,
			expected: http.StatusBadRequest,
		},
		{name: "malformed", body: `{"dataset": `, expected: http.StatusBadRequest},
		{name: "get_not_allowed", method: "GET", body: `{}`, expected: http.StatusMethodNotAllowed},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			method := test.method
			if method == "" {
				method = "POST"
			}
			req := httptest.NewRequest(method, "/query", strings.NewReader(test.body))
			req.Header.Set("content-type", "application/json")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != test.expected {
				t.Errorf("status got: %v, expected: %v, body: %s", w.Code, test.expected, w.Body.String())
			}
		})
	}
}

func TestHandler_QueryInvertedBoxIsEmpty(t *testing.T) {
	h := newTestHandler(t)
	w := postJSON(t, h, `{"dataset": "grid", "boxes": [{"from": [7, 7], "to": [1, 1]}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status got: %v, expected: %v, body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var resp response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unable decode response: %v", err)
	}
	if resp.Data[0].Count != 0 {
		t.Errorf("inverted box count got: %v, expected: %v", resp.Data[0].Count, 0)
	}
}
