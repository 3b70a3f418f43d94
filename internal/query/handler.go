package query

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"rangeq/internal/geom"
	"rangeq/internal/httputil"
	"rangeq/internal/index"
	"rangeq/internal/logging"
	"rangeq/internal/scan"
)

const maxBodyBytes = 64 * 1024 * 1024

type box struct {
	From []float64 `json:"from"`
	To   []float64 `json:"to"`
}

type request struct {
	Dataset string `json:"dataset"`
	Boxes   []box  `json:"boxes"`
	Verify  bool   `json:"verify"`
}

type boxResult struct {
	From   []float64   `json:"from"`
	To     []float64   `json:"to"`
	Count  int         `json:"count"`
	Points [][]float64 `json:"points"`
}

type response struct {
	Dataset string      `json:"dataset"`
	Data    []boxResult `json:"data"`
}

func NewHandler(cfg *Config, querier index.Querier) (http.Handler, error) {
	return &handler{
		cfg:     cfg,
		querier: querier,
	}, nil
}

type handler struct {
	querier index.Querier
	cfg     *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	if t := r.Header.Get("content-type"); len(t) < 16 || t[:16] != "application/json" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		logger.Debug(fmt.Sprintf(`{"error": "%v"}`, "content-type is not application/json"))
		_, _ = fmt.Fprintf(w, `{"error": "%v"}`, "content-type is not application/json")
		return
	}

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	if len(req.Boxes) == 0 {
		httputil.RespBadRequest(ctx, w, `{"error": "boxes must not be empty"}`)
		return
	}
	if len(req.Boxes) > h.cfg.MaxBoxesLen {
		httputil.RespBadRequest(ctx, w, `{"error": "boxes is too large, max allowed len is %d"}`, h.cfg.MaxBoxesLen)
		return
	}

	respData := make([]boxResult, len(req.Boxes))
	errGrp := errgroup.Group{}
	mtx := sync.Mutex{}
	for i, b := range req.Boxes {
		i, b := i, b
		errGrp.Go(func() error {
			from, to := geom.NewPoint(b.From), geom.NewPoint(b.To)
			points, err := h.querier.Query(ctx, req.Dataset, from, to)
			if err != nil {
				return fmt.Errorf("query error: %v", err)
			}
			if req.Verify && h.cfg.AllowVerify {
				if err := h.verify(req.Dataset, from, to, points); err != nil {
					return err
				}
			}
			vecs := make([][]float64, len(points))
			for j := range points {
				vecs[j] = points[j]
			}
			mtx.Lock()
			respData[i] = boxResult{From: b.From, To: b.To, Count: len(vecs), Points: vecs}
			mtx.Unlock()
			return nil
		})
	}
	if err := errGrp.Wait(); err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "query processing error, %v"}`, err)
		return
	}

	resp := response{Dataset: req.Dataset, Data: respData}
	bytes, err := json.Marshal(resp)
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s", bytes)
}

// verify cross-checks the tree result against the trivial linear scan over
// the dataset working set.
func (h *handler) verify(dataset string, from, to geom.Point, reported []geom.Point) error {
	stored, err := h.querier.Points(dataset)
	if err != nil {
		return fmt.Errorf("verify error: %v", err)
	}
	expected := scan.Points(stored, from, to)
	if !equalMultisets(reported, expected) {
		return fmt.Errorf("verify error: tree reported %d points, scan reported %d", len(reported), len(expected))
	}
	return nil
}

func equalMultisets(a, b []geom.Point) bool {
	if len(a) != len(b) {
		return false
	}
	as := make([]geom.Point, len(a))
	bs := make([]geom.Point, len(b))
	copy(as, a)
	copy(bs, b)
	sort.SliceStable(as, func(i, j int) bool { return as[i].LexLess(as[j]) })
	sort.SliceStable(bs, func(i, j int) bool { return bs[i].LexLess(bs[j]) })
	for i := range as {
		if !as[i].Equal(bs[i]) {
			return false
		}
	}
	return true
}
