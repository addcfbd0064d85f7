// cachelab-server exposes a Store over a small JSON/HTTP surface.
// The handlers hold no state of their own: every request delegates to
// the store, and the only mapping done here is ok/not-found results
// to status codes.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	cachelab "github.com/abdellahhioun/Cachelab"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "HTTP listen address")
	dataFile := flag.String("data", "./data/store.txt", "Snapshot file path")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	store, err := cachelab.Open(*dataFile, cachelab.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:    *addr,
		Handler: newHandler(store),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutting down")
		_ = srv.Close()
		_ = store.Close()
		os.Exit(0)
	}()

	logger.Info("serving", "addr", *addr, "data", *dataFile)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

type handler struct {
	store *cachelab.Store
	mux   *http.ServeMux
}

func newHandler(store *cachelab.Store) http.Handler {
	h := &handler{
		store: store,
		mux:   http.NewServeMux(),
	}
	h.mux.HandleFunc("/kv/", h.kv)
	h.mux.HandleFunc("/hash/", h.hash)
	h.mux.HandleFunc("/users/", h.users)
	h.mux.HandleFunc("/keys", h.keys)
	h.mux.HandleFunc("/entries", h.entries)
	h.mux.HandleFunc("/buckets", h.buckets)
	h.mux.HandleFunc("/loadfactor", h.loadFactor)
	h.mux.HandleFunc("/stats", h.stats)
	return h.mux
}

type entryResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "key not found"})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

func (h *handler) kv(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/kv/")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "empty key"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		value, ok := h.store.Get(key)
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, entryResponse{Key: key, Value: value})

	case http.MethodPut:
		var req struct {
			Value string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
			return
		}
		status := http.StatusCreated
		if h.store.Has(key) {
			status = http.StatusOK
		}
		h.store.Set(key, req.Value)
		writeJSON(w, status, entryResponse{Key: key, Value: req.Value})

	case http.MethodPost:
		var req struct {
			Value string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
			return
		}
		if !h.store.Update(key, req.Value) {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, entryResponse{Key: key, Value: req.Value})

	case http.MethodDelete:
		if !h.store.Delete(key) {
			notFound(w)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w)
	}
}

func (h *handler) hash(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/hash/")
	writeJSON(w, http.StatusOK, struct {
		Key    string `json:"key"`
		Bucket int    `json:"bucket"`
	}{Key: key, Bucket: h.store.BucketFor(key)})
}

func (h *handler) users(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	prefix := strings.TrimPrefix(r.URL.Path, "/users/")
	data := h.store.UserData(prefix)
	if len(data) == 0 {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *handler) keys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	keys := h.store.Keys()
	if prefix := r.URL.Query().Get("prefix"); prefix != "" {
		keys = h.store.KeysWithPrefix(prefix)
	}
	writeJSON(w, http.StatusOK, struct {
		Keys []string `json:"keys"`
	}{Keys: keys})
}

func (h *handler) entries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	all := h.store.All()
	out := make([]entryResponse, len(all))
	for i, e := range all {
		out[i] = entryResponse{Key: e.Key, Value: e.Value}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) buckets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	view := h.store.Buckets()

	type bucketJSON struct {
		Index   int             `json:"index"`
		Count   int             `json:"count"`
		Entries []entryResponse `json:"entries"`
	}
	resp := struct {
		TotalBuckets   int          `json:"totalBuckets"`
		TotalItems     int          `json:"totalItems"`
		Buckets        []bucketJSON `json:"buckets"`
		ItemsPerBucket map[int]int  `json:"itemsPerBucket"`
	}{
		TotalBuckets:   view.TotalBuckets,
		TotalItems:     view.TotalItems,
		ItemsPerBucket: view.ItemsPerBucket,
	}
	for _, b := range view.Buckets {
		entries := make([]entryResponse, len(b.Entries))
		for i, e := range b.Entries {
			entries[i] = entryResponse{Key: e.Key, Value: e.Value}
		}
		resp.Buckets = append(resp.Buckets, bucketJSON{Index: b.Index, Count: b.Count, Entries: entries})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) loadFactor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	info := h.store.LoadFactorInfo()
	writeJSON(w, http.StatusOK, struct {
		Entries            int     `json:"entries"`
		Buckets            int     `json:"buckets"`
		LoadFactor         float64 `json:"loadFactor"`
		Threshold          float64 `json:"threshold"`
		ResizeOnNextInsert bool    `json:"resizeOnNextInsert"`
	}{info.Entries, info.Buckets, info.LoadFactor, info.Threshold, info.ResizeOnNextInsert})
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	st := h.store.Stats()
	writeJSON(w, http.StatusOK, struct {
		Entries     int     `json:"entries"`
		Buckets     int     `json:"buckets"`
		LoadFactor  float64 `json:"loadFactor"`
		Fingerprint uint64  `json:"fingerprint"`
		Path        string  `json:"path"`
	}{st.Entries, st.Buckets, st.LoadFactor, st.Fingerprint, st.Path})
}
