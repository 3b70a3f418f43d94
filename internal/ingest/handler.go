package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"rangeq/internal/dataset/model"
	"rangeq/internal/geom"
	"rangeq/internal/httputil"
	"rangeq/internal/index"
	"rangeq/internal/logging"
)

const maxBodyBytes = 64 * 1024 * 1024

type request struct {
	Dataset string `json:"dataset"`
	Data    []struct {
		Vec       []float64 `json:"vector"`
		CreatedAt time.Time `json:"createdAt"`
	} `json:"data"`
}

func NewHandler(cfg *Config, collector index.Collector) (http.Handler, error) {
	return &handler{
		collector: collector,
		cfg:       cfg,
	}, nil
}

type handler struct {
	collector index.Collector
	cfg       *Config
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

	if req.Dataset == "" {
		httputil.RespBadRequest(ctx, w, `{"error": "dataset name must not be empty"}`)
		return
	}
	if len(req.Data) == 0 {
		httputil.RespBadRequest(ctx, w, `{"error": "data must not be empty"}`)
		return
	}

	dims := len(req.Data[0].Vec)
	points := make([]model.DataPoint, 0, len(req.Data))
	for _, dat := range req.Data {
		if len(dat.Vec) == 0 || len(dat.Vec) != dims {
			httputil.RespBadRequest(ctx, w, `{"error": "vectors must share one non-zero dimension"}`)
			return
		}
		createdAt := dat.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		points = append(points, model.NewDataPoint(geom.NewPoint(dat.Vec), createdAt))
	}

	if err := h.collector.Collect(req.Dataset, points...); err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "error sending to collect service: %v"}`, err)
		return
	}

	logger.Infof("collected %d points for dataset %s", len(points), req.Dataset)
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"status": "ok"}`)
}
