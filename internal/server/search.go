package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/typesense/typesense-go/typesense/api"
	"github.com/typesense/typesense-go/typesense/api/pointer"

	"searchsync/internal/cache"
	apperrors "searchsync/internal/errors"
	"searchsync/internal/index"
)

const searchCacheTTL = 60 * time.Second

// SearchHandler proxies front-end queries to the search index, with a
// short-lived response cache keyed on the raw query string.
type SearchHandler struct {
	indexer index.Indexer
	cache   *cache.RedisClient // nil disables caching
	logger  *slog.Logger
}

func NewSearchHandler(indexer index.Indexer, cacheClient *cache.RedisClient, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		indexer: indexer,
		cache:   cacheClient,
		logger:  logger,
	}
}

func (h *SearchHandler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	q := strings.TrimSpace(query.Get("q"))
	if q == "" {
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrInvalidInput, "Query parameter 'q' is required", nil))
		return
	}

	cacheKey := "search:" + r.URL.RawQuery
	if h.cache != nil {
		cached, found, err := cache.Get[api.SearchResult](h.cache, r.Context(), cacheKey)
		if err != nil {
			h.logger.WarnContext(r.Context(), "Search cache read failed", "error", err)
		} else if found {
			apperrors.RespondJSON(w, http.StatusOK, cached)
			return
		}
	}

	params := &api.SearchCollectionParams{
		Q:       q,
		QueryBy: "title,shortDescription",
		FacetBy: pointer.String("entity,locale,industries"),
		SortBy:  pointer.String("publishedAtMillis:desc"),
		Page:    pointer.Int(pageParam(query.Get("page"), 1)),
		PerPage: pointer.Int(perPageParam(query.Get("per_page"))),
	}
	if filterBy := buildFilter(query); filterBy != "" {
		params.FilterBy = pointer.String(filterBy)
	}

	result, err := h.indexer.Search(r.Context(), params)
	if err != nil {
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrUnavailable, "Search is temporarily unavailable", err))
		return
	}

	if h.cache != nil {
		if err := cache.Set(h.cache, r.Context(), cacheKey, result, searchCacheTTL); err != nil {
			h.logger.WarnContext(r.Context(), "Search cache write failed", "error", err)
		}
	}

	apperrors.RespondJSON(w, http.StatusOK, result)
}

var filterFields = []struct {
	param string
	field string
}{
	{"entity", "entity"},
	{"locale", "locale"},
	{"industry", "industries"},
}

func buildFilter(query map[string][]string) string {
	var parts []string
	for _, f := range filterFields {
		if vals, ok := query[f.param]; ok && len(vals) > 0 && vals[0] != "" {
			parts = append(parts, fmt.Sprintf("%s:=%s", f.field, vals[0]))
		}
	}
	return strings.Join(parts, " && ")
}

func pageParam(raw string, fallback int) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

func perPageParam(raw string) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 20
	}
	if v > 100 {
		return 100
	}
	return v
}
